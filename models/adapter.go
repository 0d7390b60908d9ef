package models

import (
	"strconv"
	"time"
)

// APIVideo is the wire shape of a video item as returned by the upstream
// metadata API (nested snippet/statistics parts). It only exists at the
// ingestion boundary; everything past the adapter works on Video.
type APIVideo struct {
	ID      string `json:"id"`
	Snippet struct {
		Title                string   `json:"title"`
		Description          string   `json:"description"`
		PublishedAt          string   `json:"publishedAt"`
		ChannelID            string   `json:"channelId"`
		ChannelTitle         string   `json:"channelTitle"`
		CategoryID           string   `json:"categoryId"`
		Tags                 []string `json:"tags"`
		DefaultLanguage      string   `json:"defaultLanguage"`
		DefaultAudioLanguage string   `json:"defaultAudioLanguage"`
		Thumbnails           struct {
			Default struct {
				URL string `json:"url"`
			} `json:"default"`
		} `json:"thumbnails"`
	} `json:"snippet"`
	ContentDetails *struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics *struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
}

// FromAPI normalizes an upstream API item into a Video. Missing fields
// default to zero values; a missing statistics part stays nil so the scorer
// can tell "never fetched" from "zero views".
func FromAPI(raw APIVideo) Video {
	v := Video{
		ID:                   raw.ID,
		Title:                raw.Snippet.Title,
		Description:          raw.Snippet.Description,
		Tags:                 raw.Snippet.Tags,
		CategoryID:           raw.Snippet.CategoryID,
		ChannelID:            raw.Snippet.ChannelID,
		ChannelTitle:         raw.Snippet.ChannelTitle,
		Thumbnail:            raw.Snippet.Thumbnails.Default.URL,
		DefaultLanguage:      raw.Snippet.DefaultLanguage,
		DefaultAudioLanguage: raw.Snippet.DefaultAudioLanguage,
	}

	if raw.Snippet.PublishedAt != "" {
		if ts, err := time.Parse(time.RFC3339, raw.Snippet.PublishedAt); err == nil {
			v.PublishedAt = ts
		}
	}

	if raw.ContentDetails != nil {
		v.Duration = raw.ContentDetails.Duration
	}

	if raw.Statistics != nil {
		v.Statistics = &VideoStatistics{
			ViewCount:    parseCount(raw.Statistics.ViewCount),
			LikeCount:    parseCount(raw.Statistics.LikeCount),
			CommentCount: parseCount(raw.Statistics.CommentCount),
		}
	}

	return v
}

// FromAPIBatch normalizes a whole candidate batch.
func FromAPIBatch(raw []APIVideo) []Video {
	videos := make([]Video, 0, len(raw))
	for _, item := range raw {
		videos = append(videos, FromAPI(item))
	}
	return videos
}

// parseCount tolerates the API's string-encoded counters.
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
