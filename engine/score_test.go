package engine

import (
	"testing"
	"time"

	"tubefeed/config"
	"tubefeed/keywords"
	"tubefeed/models"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	s := NewScorer(config.DefaultConfig().Recommend, keywords.NewExtractor())
	s.now = func() time.Time { return testNow }
	return s
}

func TestScoreBounds(t *testing.T) {
	s := newTestScorer()

	videos := []*models.Video{
		{},
		{ID: "a", Title: "Anything at all"},
		{
			ID:          "b",
			Title:       "Massive hit",
			CategoryID:  "10",
			ChannelID:   "ch-1",
			PublishedAt: testNow,
			Statistics:  &models.VideoStatistics{ViewCount: 900_000_000, LikeCount: 50_000_000, CommentCount: 9_000_000},
		},
	}
	contexts := []*models.UserContext{
		nil,
		{},
		{
			WatchHistory: []models.WatchHistoryEntry{
				{VideoID: "x", CategoryID: "10", ChannelID: "ch-1", Tags: []string{"massive", "hit"}},
			},
			TopCategories:   []models.CategoryCount{{CategoryID: "10", Count: 5}},
			HistoryKeywords: []models.KeywordCount{{Tag: "massive", Count: 3}, {Tag: "hit", Count: 2}},
			UserRegion:      "US",
			CurrentVideo:    videos[2],
		},
	}

	for _, v := range videos {
		for _, ctx := range contexts {
			score := s.Score(v, ctx)
			if score < 0 || score > 100 {
				t.Errorf("score %f out of [0,100] for video %+v", score, v)
			}
		}
	}
}

func TestEmptyHistoryNeutralSubScores(t *testing.T) {
	s := newTestScorer()
	video := &models.Video{ID: "v", Title: "Some video", CategoryID: "22"}
	ctx := &models.UserContext{}

	if got := s.historyMatchScore(video, ctx); got != 50 {
		t.Errorf("history match with empty history = %f, want 50", got)
	}
	if got := s.categoryScore(video, nil); got != 50 {
		t.Errorf("category score with no data = %f, want 50", got)
	}
}

func TestHistoryMatchCaps(t *testing.T) {
	s := newTestScorer()

	// 10 watches of the same channel and category would exceed the per-factor
	// caps without clamping.
	history := make([]models.WatchHistoryEntry, 10)
	for i := range history {
		history[i] = models.WatchHistoryEntry{VideoID: "w", ChannelID: "ch-9", CategoryID: "17"}
	}
	video := &models.Video{ID: "v", ChannelID: "ch-9", CategoryID: "17"}
	ctx := &models.UserContext{WatchHistory: history}

	// channel capped at 40, category capped at 20, no keyword overlap.
	if got := s.historyMatchScore(video, ctx); got != 60 {
		t.Errorf("history match = %f, want 60", got)
	}
}

func TestCategoryScoreRanking(t *testing.T) {
	s := newTestScorer()
	top := []models.CategoryCount{
		{CategoryID: "10", Count: 9},
		{CategoryID: "20", Count: 5},
		{CategoryID: "24", Count: 2},
	}

	cases := []struct {
		category string
		want     float64
	}{
		{"10", 100},
		{"20", 85},
		{"24", 70},
		{"99", 30},
	}
	for _, tc := range cases {
		v := &models.Video{CategoryID: tc.category}
		if got := s.categoryScore(v, top); got != tc.want {
			t.Errorf("category %s: got %f, want %f", tc.category, got, tc.want)
		}
	}
}

func TestTrendingScore(t *testing.T) {
	s := newTestScorer()

	cases := []struct {
		name  string
		stats *models.VideoStatistics
		want  float64
	}{
		{"no statistics part", nil, 50},
		{"ten million views no engagement", &models.VideoStatistics{ViewCount: 10_000_000}, 70},
		{"zero views", &models.VideoStatistics{}, 0},
		{"view score caps at 100", &models.VideoStatistics{ViewCount: 500_000_000}, 70},
	}
	for _, tc := range cases {
		v := &models.Video{Statistics: tc.stats}
		if got := s.trendingScore(v); got != tc.want {
			t.Errorf("%s: got %f, want %f", tc.name, got, tc.want)
		}
	}
}

func TestTrendingEngagement(t *testing.T) {
	s := newTestScorer()

	// 1M views, 5k likes: engagement rate 5/1000*1000 = 5, *20 = 100 capped.
	v := &models.Video{Statistics: &models.VideoStatistics{ViewCount: 1_000_000, LikeCount: 5_000}}
	want := 10*0.7 + 100*0.3
	if got := s.trendingScore(v); got != want {
		t.Errorf("got %f, want %f", got, want)
	}
}

func TestLocationScore(t *testing.T) {
	s := newTestScorer()

	cases := []struct {
		name   string
		video  models.Video
		region string
		want   float64
	}{
		{"language matches region", models.Video{DefaultLanguage: "en"}, "US", 100},
		{"variant prefix matches", models.Video{DefaultLanguage: "en-GB"}, "GB", 100},
		{"audio language matches", models.Video{DefaultAudioLanguage: "hi"}, "IN", 100},
		{"multi-language region second entry", models.Video{DefaultLanguage: "hi"}, "IN", 100},
		{"mismatch is neutral", models.Video{DefaultLanguage: "ja"}, "US", 60},
		{"no language info is neutral", models.Video{}, "US", 60},
		{"unknown region is neutral", models.Video{DefaultLanguage: "en"}, "ZZ", 60},
	}
	for _, tc := range cases {
		if got := s.locationScore(&tc.video, tc.region); got != tc.want {
			t.Errorf("%s: got %f, want %f", tc.name, got, tc.want)
		}
	}
}

func TestRecencyScore(t *testing.T) {
	s := newTestScorer()

	cases := []struct {
		name        string
		publishedAt time.Time
		want        float64
	}{
		{"published now", testNow, 100},
		{"six days old", testNow.AddDate(0, 0, -6), 80},
		{"ten days old", testNow.AddDate(0, 0, -10), 60},
		{"sixty days old", testNow.AddDate(0, 0, -60), 40},
		{"ancient floors at 20", testNow.AddDate(-2, 0, 0), 20},
		{"unknown date is neutral", time.Time{}, 50},
	}
	for _, tc := range cases {
		v := &models.Video{PublishedAt: tc.publishedAt}
		if got := s.recencyScore(v); got != tc.want {
			t.Errorf("%s: got %f, want %f", tc.name, got, tc.want)
		}
	}
}

func TestAnchorBonusApplied(t *testing.T) {
	s := newTestScorer()

	video := &models.Video{
		ID:         "v1",
		Title:      "deep sea creatures documentary",
		CategoryID: "28",
		ChannelID:  "ch-ocean",
		Tags:       []string{"ocean", "documentary"},
	}
	anchor := &models.Video{
		ID:         "v2",
		Title:      "deep sea creatures documentary",
		CategoryID: "28",
		ChannelID:  "ch-ocean",
		Tags:       []string{"ocean", "documentary"},
	}

	without := s.Score(video, &models.UserContext{UserRegion: "US"})
	with := s.Score(video, &models.UserContext{UserRegion: "US", CurrentVideo: anchor})

	if with <= without {
		t.Fatalf("anchor bonus missing: with=%f without=%f", with, without)
	}
	if diff := with - without; diff > 10.0001 {
		t.Fatalf("anchor bonus %f exceeds 10", diff)
	}
}

func BenchmarkScore(b *testing.B) {
	s := newTestScorer()
	video := &models.Video{
		ID:          "bench",
		Title:       "Go concurrency patterns explained",
		Description: "Goroutines, channels and worker pools",
		CategoryID:  "28",
		ChannelID:   "ch-gopherlab",
		Tags:        []string{"golang", "concurrency"},
		PublishedAt: testNow.AddDate(0, 0, -3),
		Statistics:  &models.VideoStatistics{ViewCount: 1_200_000, LikeCount: 40_000, CommentCount: 2_000},
	}
	ctx := &models.UserContext{
		WatchHistory: []models.WatchHistoryEntry{
			{VideoID: "w1", ChannelID: "ch-gopherlab", CategoryID: "28", Tags: []string{"golang"}},
		},
		TopCategories:   []models.CategoryCount{{CategoryID: "28", Count: 4}},
		HistoryKeywords: []models.KeywordCount{{Tag: "golang", Count: 4}},
		UserRegion:      "US",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Score(video, ctx)
	}
}
