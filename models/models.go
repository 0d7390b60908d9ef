package models

import (
	"strings"
	"time"
)

// VideoStatistics carries the popularity counters of a video. The whole
// block is optional in API payloads; a nil *VideoStatistics means the
// counters were never fetched, which is scored differently from counters
// that are present but zero.
type VideoStatistics struct {
	ViewCount    int64 `json:"viewCount"`
	LikeCount    int64 `json:"likeCount"`
	CommentCount int64 `json:"commentCount"`
}

// Video is the normalized video record the engine operates on. It is built
// once at the ingestion boundary (see FromAPI) and never mutated by the
// scoring pipeline.
type Video struct {
	ID                   string           `json:"id"`
	Title                string           `json:"title"`
	Description          string           `json:"description"`
	Tags                 []string         `json:"tags,omitempty"`
	CategoryID           string           `json:"categoryId"`
	ChannelID            string           `json:"channelId"`
	ChannelTitle         string           `json:"channelTitle"`
	PublishedAt          time.Time        `json:"publishedAt"`
	Thumbnail            string           `json:"thumbnail,omitempty"`
	Duration             string           `json:"duration,omitempty"`
	DefaultLanguage      string           `json:"defaultLanguage,omitempty"`
	DefaultAudioLanguage string           `json:"defaultAudioLanguage,omitempty"`
	Statistics           *VideoStatistics `json:"statistics,omitempty"`
}

// RankedVideo is a Video annotated with its recommendation score. The
// embedded Video keeps every original field intact in the output.
type RankedVideo struct {
	Video
	RecommendationScore float64 `json:"recommendationScore"`
}

// WatchHistoryEntry records one playback start. Entries are kept
// most-recent-first, deduplicated by VideoID, capped at the store's limit.
type WatchHistoryEntry struct {
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	CategoryID   string    `json:"categoryId"`
	ChannelID    string    `json:"channelId"`
	ChannelTitle string    `json:"channelTitle"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	WatchTime    int       `json:"watchTime"`
	Duration     string    `json:"duration,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
}

// SearchHistoryEntry records one search query, deduplicated by trimmed text.
type SearchHistoryEntry struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// CategoryCount is one row of the ranked top-category aggregation.
type CategoryCount struct {
	CategoryID string `json:"categoryId"`
	Count      int    `json:"count"`
}

// ChannelCount is one row of the ranked top-channel aggregation.
type ChannelCount struct {
	ChannelID    string `json:"channelId"`
	ChannelTitle string `json:"channelTitle"`
	Count        int    `json:"count"`
}

// KeywordCount is one row of the ranked history-keyword aggregation.
type KeywordCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// UserContext is the read-only snapshot of user history a scoring pass runs
// against. It is derived on demand and never persisted.
type UserContext struct {
	WatchHistory    []WatchHistoryEntry `json:"watchHistory"`
	TopCategories   []CategoryCount     `json:"topCategories"`
	TopChannels     []ChannelCount      `json:"topChannels"`
	HistoryKeywords []KeywordCount      `json:"historyKeywords"`
	UserRegion      string              `json:"userRegion"`
	CurrentVideo    *Video              `json:"currentVideo,omitempty"`
}

// WatchStats summarizes the watch history for the stats endpoint.
type WatchStats struct {
	TotalVideos      int                 `json:"totalVideos"`
	TotalWatchTime   int                 `json:"totalWatchTime"`
	AverageWatchTime float64             `json:"averageWatchTime"`
	TopCategories    []CategoryCount     `json:"topCategories"`
	RecentlyWatched  []WatchHistoryEntry `json:"recentlyWatched"`
}

// FeedRequest asks for a ranked feed. Candidates are externally fetched
// video batches; when empty the service falls back to its candidate source.
type FeedRequest struct {
	Candidates     []Video `json:"candidates"`
	Trending       []Video `json:"trending"`
	CurrentVideoID string  `json:"currentVideoId,omitempty"`
	CurrentVideo   *Video  `json:"currentVideo,omitempty"`
	Region         string  `json:"region,omitempty"`
	Limit          int     `json:"limit"`
	ExcludeWatched bool    `json:"excludeWatched"`
	RealTime       bool    `json:"realTime"`
}

// FeedMetadata describes how a feed response was produced.
type FeedMetadata struct {
	Algorithm string `json:"algorithm"`
	CacheHit  bool   `json:"cacheHit"`
	Duration  string `json:"duration"`
}

// FeedResponse is the ranked result handed back to the presentation layer.
type FeedResponse struct {
	Items     []RankedVideo `json:"items"`
	RequestID string        `json:"requestId"`
	Timestamp time.Time     `json:"timestamp"`
	Metadata  *FeedMetadata `json:"metadata,omitempty"`
}

// WatchEventRequest reports a playback start.
type WatchEventRequest struct {
	Video     Video `json:"video"`
	WatchTime int   `json:"watchTime"`
}

// SearchEventRequest reports a submitted search query.
type SearchEventRequest struct {
	Query string `json:"query"`
}

// APIResponse is the common HTTP envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NormalizedQuery is the dedup key for search history entries.
func (e SearchHistoryEntry) NormalizedQuery() string {
	return strings.TrimSpace(e.Query)
}
