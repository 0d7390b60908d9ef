package engine

import (
	"math"
	"strings"
	"time"

	"tubefeed/config"
	"tubefeed/keywords"
	"tubefeed/models"
)

// neutralScore is substituted whenever a sub-score has no data to work with.
const neutralScore = 50.0

// Languages users in a region are assumed to understand. Multi-language
// regions match any listed language.
var regionLanguages = map[string][]string{
	"US": {"en"},
	"GB": {"en"},
	"IN": {"en", "hi"},
	"JP": {"ja"},
	"KR": {"ko"},
	"BR": {"pt"},
	"FR": {"fr"},
	"DE": {"de"},
	"ES": {"es"},
	"MX": {"es"},
}

// Scorer computes 0-100 relevance scores for single videos against a user
// context. It is stateless apart from the keyword memo cache and safe for
// reuse across passes.
type Scorer struct {
	weights   config.RecommendConfig
	extractor *keywords.Extractor
	now       func() time.Time
}

func NewScorer(weights config.RecommendConfig, extractor *keywords.Extractor) *Scorer {
	if extractor == nil {
		extractor = keywords.NewExtractor()
	}
	return &Scorer{
		weights:   weights,
		extractor: extractor,
		now:       time.Now,
	}
}

// Score returns the weighted relevance of video for ctx, clamped to [0,100].
// When ctx carries a current video, an additive similarity bonus of up to 10
// points is applied before clamping.
func (s *Scorer) Score(video *models.Video, ctx *models.UserContext) float64 {
	if video == nil {
		return 0
	}
	if ctx == nil {
		ctx = &models.UserContext{}
	}

	score := s.historyMatchScore(video, ctx)*s.weights.WeightHistory +
		s.categoryScore(video, ctx.TopCategories)*s.weights.WeightCategory +
		s.trendingScore(video)*s.weights.WeightTrending +
		s.locationScore(video, ctx.UserRegion)*s.weights.WeightLocation +
		s.recencyScore(video)*s.weights.WeightRecency

	if ctx.CurrentVideo != nil {
		score += s.Similarity(video, ctx.CurrentVideo) * 10
	}

	return clamp(score, 0, 100)
}

// historyMatchScore rewards repeat channels, keyword overlap with history
// and repeat categories. An empty watch history scores a neutral 50.
func (s *Scorer) historyMatchScore(video *models.Video, ctx *models.UserContext) float64 {
	if len(ctx.WatchHistory) == 0 {
		return neutralScore
	}

	var score float64

	channelMatches := 0
	categoryMatches := 0
	for _, h := range ctx.WatchHistory {
		if h.ChannelID == video.ChannelID {
			channelMatches++
		}
		if h.CategoryID == video.CategoryID {
			categoryMatches++
		}
	}
	score += math.Min(40, float64(channelMatches)*10)

	historyTags := make(map[string]struct{}, len(ctx.HistoryKeywords))
	for _, kw := range ctx.HistoryKeywords {
		historyTags[kw.Tag] = struct{}{}
	}
	keywordMatches := 0
	for _, keyword := range s.extractor.Extract(video) {
		if _, ok := historyTags[keyword]; ok {
			keywordMatches++
		}
	}
	score += math.Min(40, float64(keywordMatches)*8)

	score += math.Min(20, float64(categoryMatches)*5)

	return math.Min(100, score)
}

// categoryScore maps the video's rank in the user's top categories to a
// score: 100 minus 15 per rank step, 30 when absent, neutral 50 when there
// is no category data at all.
func (s *Scorer) categoryScore(video *models.Video, topCategories []models.CategoryCount) float64 {
	if len(topCategories) == 0 {
		return neutralScore
	}
	for i, cat := range topCategories {
		if cat.CategoryID == video.CategoryID {
			return 100 - float64(i)*15
		}
	}
	return 30
}

// trendingScore blends normalized view count (70%) with engagement rate
// (30%). A video with no statistics part at all scores a neutral 50.
func (s *Scorer) trendingScore(video *models.Video) float64 {
	stats := video.Statistics
	if stats == nil {
		return neutralScore
	}

	viewScore := math.Min(100, float64(stats.ViewCount)/10_000_000*100)

	engagementRate := 0.0
	if stats.ViewCount > 0 {
		engagementRate = float64(stats.LikeCount+stats.CommentCount) / float64(stats.ViewCount) * 1000
	}
	engagementScore := math.Min(100, engagementRate*20)

	return viewScore*0.7 + engagementScore*0.3
}

// locationScore returns 100 when the video's declared language matches the
// user's region, otherwise a neutral 60. Unknown regions never match.
func (s *Scorer) locationScore(video *models.Video, region string) float64 {
	for _, lang := range regionLanguages[region] {
		if strings.HasPrefix(video.DefaultLanguage, lang) ||
			strings.HasPrefix(video.DefaultAudioLanguage, lang) {
			return 100
		}
	}
	return 60
}

// recencyScore steps down with publish age: 100 under a day, 80 under a
// week, 60 under a month, then a slow decay floored at 20. An unknown
// publish date scores a neutral 50.
func (s *Scorer) recencyScore(video *models.Video) float64 {
	if video.PublishedAt.IsZero() {
		return neutralScore
	}

	days := s.now().Sub(video.PublishedAt).Hours() / 24
	switch {
	case days < 1:
		return 100
	case days < 7:
		return 80
	case days < 30:
		return 60
	default:
		return math.Max(20, 100-days)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
