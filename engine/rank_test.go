package engine

import (
	"testing"

	"tubefeed/models"
)

func TestRankSortedDescending(t *testing.T) {
	s := newTestScorer()
	videos := []models.Video{
		{ID: "low", Title: "unrelated knitting video", CategoryID: "26"},
		{ID: "high", Title: "golang concurrency", CategoryID: "28", ChannelID: "ch-fav", Tags: []string{"golang"}},
		{ID: "mid", Title: "golang basics", CategoryID: "28"},
	}
	ctx := &models.UserContext{
		WatchHistory: []models.WatchHistoryEntry{
			{VideoID: "w", ChannelID: "ch-fav", CategoryID: "28", Tags: []string{"golang"}},
		},
		TopCategories:   []models.CategoryCount{{CategoryID: "28", Count: 3}},
		HistoryKeywords: []models.KeywordCount{{Tag: "golang", Count: 3}},
		UserRegion:      "US",
	}

	ranked := s.Rank(videos, ctx)

	if len(ranked) != len(videos) {
		t.Fatalf("rank changed length: %d -> %d", len(videos), len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].RecommendationScore > ranked[i-1].RecommendationScore {
			t.Fatalf("not sorted descending at %d: %v", i, ranked)
		}
	}
	if ranked[0].ID != "high" {
		t.Errorf("expected strongest match first, got %s", ranked[0].ID)
	}
}

func TestRankPreservesAllVideos(t *testing.T) {
	s := newTestScorer()
	videos := []models.Video{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}

	ranked := s.Rank(videos, &models.UserContext{})

	seen := make(map[string]bool)
	for _, r := range ranked {
		seen[r.ID] = true
	}
	for _, v := range videos {
		if !seen[v.ID] {
			t.Errorf("video %s dropped by rank", v.ID)
		}
	}
}

func TestRankStableTieBreak(t *testing.T) {
	s := newTestScorer()

	// Identical videos score identically; stable sort keeps input order.
	videos := []models.Video{
		{ID: "first", Title: "same video"},
		{ID: "second", Title: "same video"},
		{ID: "third", Title: "same video"},
	}

	ranked := s.Rank(videos, &models.UserContext{})

	want := []string{"first", "second", "third"}
	for i, id := range want {
		if ranked[i].ID != id {
			t.Fatalf("tie order broken: got %s at %d, want %s", ranked[i].ID, i, id)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	s := newTestScorer()
	videos := []models.Video{
		{ID: "a", Title: "alpha"},
		{ID: "b", Title: "golang deep dive", Tags: []string{"golang"}},
	}
	original := make([]models.Video, len(videos))
	copy(original, videos)

	s.Rank(videos, &models.UserContext{
		HistoryKeywords: []models.KeywordCount{{Tag: "golang", Count: 2}},
		WatchHistory:    []models.WatchHistoryEntry{{VideoID: "w"}},
	})

	for i := range videos {
		if videos[i].ID != original[i].ID || videos[i].Title != original[i].Title {
			t.Fatalf("input mutated at %d: %+v", i, videos[i])
		}
	}
}

func TestRankKeepsOriginalFields(t *testing.T) {
	s := newTestScorer()
	videos := []models.Video{{
		ID:           "a",
		Title:        "keep me",
		Description:  "all fields survive",
		ChannelTitle: "Some Channel",
		Thumbnail:    "https://example.com/t.jpg",
		Statistics:   &models.VideoStatistics{ViewCount: 123},
	}}

	ranked := s.Rank(videos, &models.UserContext{})

	got := ranked[0]
	if got.Description != "all fields survive" || got.Thumbnail == "" || got.Statistics == nil {
		t.Fatalf("original fields dropped: %+v", got)
	}
}
