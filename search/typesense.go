package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/typesense/typesense-go/typesense"
	"github.com/typesense/typesense-go/typesense/api"
	"github.com/typesense/typesense-go/typesense/api/pointer"

	"tubefeed/config"
	"tubefeed/models"
)

// VideoIndex is a typesense-backed candidate source over an indexed video
// corpus. Trending falls back to view-count ordering via the index's default
// sorting field.
type VideoIndex struct {
	client     *typesense.Client
	collection string
}

// indexedVideo is the flat document shape stored in typesense.
type indexedVideo struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	CategoryID    string   `json:"categoryId"`
	ChannelID     string   `json:"channelId"`
	ChannelTitle  string   `json:"channelTitle"`
	PublishedAt   int64    `json:"publishedAt"`
	Language      string   `json:"language"`
	AudioLanguage string   `json:"audioLanguage"`
	ViewCount     int64    `json:"viewCount"`
	LikeCount     int64    `json:"likeCount"`
	CommentCount  int64    `json:"commentCount"`
}

func NewVideoIndex(cfg config.TypesenseConfig) *VideoIndex {
	client := typesense.NewClient(
		typesense.WithServer(cfg.Host),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)
	return &VideoIndex{client: client, collection: cfg.Collection}
}

// EnsureCollection creates the video collection if it does not exist yet.
func (ix *VideoIndex) EnsureCollection(ctx context.Context) error {
	schema := &api.CollectionSchema{
		Name: ix.collection,
		Fields: []api.Field{
			{Name: "title", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "tags", Type: "string[]", Optional: pointer.True()},
			{Name: "categoryId", Type: "string", Facet: pointer.True()},
			{Name: "channelId", Type: "string", Facet: pointer.True()},
			{Name: "channelTitle", Type: "string", Optional: pointer.True()},
			{Name: "publishedAt", Type: "int64"},
			{Name: "language", Type: "string", Optional: pointer.True()},
			{Name: "audioLanguage", Type: "string", Optional: pointer.True()},
			{Name: "viewCount", Type: "int64"},
			{Name: "likeCount", Type: "int64", Optional: pointer.True()},
			{Name: "commentCount", Type: "int64", Optional: pointer.True()},
		},
		DefaultSortingField: pointer.String("viewCount"),
	}

	if _, err := ix.client.Collections().Create(ctx, schema); err != nil {
		var tsErr *typesense.HTTPError
		if errors.As(err, &tsErr) && tsErr.Status == 409 {
			// Collection already exists.
			return nil
		}
		return fmt.Errorf("create collection %s: %w", ix.collection, err)
	}
	log.WithField("collection", ix.collection).Info("created typesense collection")
	return nil
}

// IndexVideos upserts a video batch into the collection as JSONL.
func (ix *VideoIndex) IndexVideos(ctx context.Context, videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}

	var builder strings.Builder
	for _, v := range videos {
		line, err := json.Marshal(toIndexed(v))
		if err != nil {
			continue
		}
		builder.Write(line)
		builder.WriteByte('\n')
	}

	_, err := ix.client.Collection(ix.collection).Documents().ImportJsonl(
		ctx,
		strings.NewReader(builder.String()),
		&api.ImportDocumentsParams{
			Action:    pointer.String("upsert"),
			BatchSize: pointer.Int(40),
		},
	)
	if err != nil {
		return fmt.Errorf("import %d videos: %w", len(videos), err)
	}

	log.WithFields(log.Fields{
		"collection": ix.collection,
		"videos":     len(videos),
	}).Info("indexed videos")
	return nil
}

// Search queries title, description and tags.
func (ix *VideoIndex) Search(ctx context.Context, query string, limit int) ([]models.Video, error) {
	result, err := ix.client.Collection(ix.collection).Documents().Search(ctx, &api.SearchCollectionParams{
		Q:       query,
		QueryBy: "title,description,tags",
		PerPage: pointer.Int(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return hitsToVideos(result.Hits), nil
}

// Trending returns the most viewed indexed videos.
func (ix *VideoIndex) Trending(ctx context.Context, region string, limit int) ([]models.Video, error) {
	result, err := ix.client.Collection(ix.collection).Documents().Search(ctx, &api.SearchCollectionParams{
		Q:       "*",
		QueryBy: "title",
		SortBy:  pointer.String("viewCount:desc"),
		PerPage: pointer.Int(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("trending query: %w", err)
	}
	return hitsToVideos(result.Hits), nil
}

func toIndexed(v models.Video) indexedVideo {
	doc := indexedVideo{
		ID:            v.ID,
		Title:         v.Title,
		Description:   v.Description,
		Tags:          v.Tags,
		CategoryID:    v.CategoryID,
		ChannelID:     v.ChannelID,
		ChannelTitle:  v.ChannelTitle,
		Language:      v.DefaultLanguage,
		AudioLanguage: v.DefaultAudioLanguage,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if !v.PublishedAt.IsZero() {
		doc.PublishedAt = v.PublishedAt.Unix()
	}
	if v.Statistics != nil {
		doc.ViewCount = v.Statistics.ViewCount
		doc.LikeCount = v.Statistics.LikeCount
		doc.CommentCount = v.Statistics.CommentCount
	}
	return doc
}

func hitsToVideos(hits *[]api.SearchResultHit) []models.Video {
	if hits == nil {
		return nil
	}

	videos := make([]models.Video, 0, len(*hits))
	for _, hit := range *hits {
		if hit.Document == nil {
			continue
		}
		videos = append(videos, videoFromDocument(*hit.Document))
	}
	return videos
}

func videoFromDocument(doc map[string]interface{}) models.Video {
	v := models.Video{
		ID:                   docString(doc, "id"),
		Title:                docString(doc, "title"),
		Description:          docString(doc, "description"),
		CategoryID:           docString(doc, "categoryId"),
		ChannelID:            docString(doc, "channelId"),
		ChannelTitle:         docString(doc, "channelTitle"),
		DefaultLanguage:      docString(doc, "language"),
		DefaultAudioLanguage: docString(doc, "audioLanguage"),
	}

	if raw, ok := doc["tags"].([]interface{}); ok {
		for _, t := range raw {
			if s, ok := t.(string); ok {
				v.Tags = append(v.Tags, s)
			}
		}
	}
	if ts := docInt(doc, "publishedAt"); ts > 0 {
		v.PublishedAt = time.Unix(ts, 0).UTC()
	}
	if _, ok := doc["viewCount"]; ok {
		v.Statistics = &models.VideoStatistics{
			ViewCount:    docInt(doc, "viewCount"),
			LikeCount:    docInt(doc, "likeCount"),
			CommentCount: docInt(doc, "commentCount"),
		}
	}
	return v
}

func docString(doc map[string]interface{}, key string) string {
	s, _ := doc[key].(string)
	return s
}

func docInt(doc map[string]interface{}, key string) int64 {
	switch n := doc[key].(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case json.Number:
		v, _ := n.Int64()
		return v
	default:
		return 0
	}
}
