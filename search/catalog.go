// Package search supplies candidate videos: a built-in static catalog for
// development and degraded mode, and an optional typesense-backed index.
package search

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"tubefeed/models"
)

// YouTube-style category IDs used by the built-in catalog.
const (
	categoryMusic   = "10"
	categorySports  = "17"
	categoryGaming  = "20"
	categoryEnt     = "24"
	categoryNews    = "25"
	categoryHowTo   = "26"
	categoryScience = "28"
)

// StaticCatalog is a deterministic in-memory candidate source. It stands in
// for the external video-metadata API during development and whenever a
// request carries no candidate batch of its own.
type StaticCatalog struct {
	videos []models.Video
}

func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{videos: catalogVideos()}
}

// Trending returns the catalog ordered by view count, highest first.
func (c *StaticCatalog) Trending(ctx context.Context, region string, limit int) ([]models.Video, error) {
	trending := make([]models.Video, len(c.videos))
	copy(trending, c.videos)

	sort.SliceStable(trending, func(i, j int) bool {
		return viewsOf(trending[i]) > viewsOf(trending[j])
	})

	if limit > 0 && len(trending) > limit {
		trending = trending[:limit]
	}
	return trending, nil
}

// Search matches the query against titles, descriptions and tags.
func (c *StaticCatalog) Search(ctx context.Context, query string, limit int) ([]models.Video, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	terms := strings.Fields(query)

	var hits []models.Video
	for _, v := range c.videos {
		text := strings.ToLower(v.Title + " " + v.Description + " " + strings.Join(v.Tags, " "))
		matched := false
		for _, term := range terms {
			if strings.Contains(text, term) {
				matched = true
				break
			}
		}
		if matched {
			hits = append(hits, v)
		}
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

// Videos returns the full catalog, e.g. for index bootstrap.
func (c *StaticCatalog) Videos() []models.Video {
	return c.videos
}

func viewsOf(v models.Video) int64 {
	if v.Statistics == nil {
		return 0
	}
	return v.Statistics.ViewCount
}

type seedVideo struct {
	title       string
	description string
	category    string
	channelID   string
	channel     string
	language    string
	tags        []string
}

func catalogVideos() []models.Video {
	seeds := []seedVideo{
		{"Go Concurrency Patterns Explained", "Goroutines, channels and worker pools with practical examples", categoryScience, "ch-gopherlab", "GopherLab", "en", []string{"golang", "concurrency", "programming"}},
		{"Building a Redis Clone From Scratch", "Implementing the RESP protocol and an in-memory keyspace", categoryScience, "ch-gopherlab", "GopherLab", "en", []string{"golang", "redis", "databases"}},
		{"Top 20 Goals of the Season", "The best goals from this season's league matches", categorySports, "ch-matchday", "Matchday Highlights", "en", []string{"football", "goals", "highlights"}},
		{"Marathon Training for Beginners", "A 16 week plan to your first marathon finish line", categorySports, "ch-runfar", "RunFar", "en", []string{"running", "marathon", "training"}},
		{"Lofi Beats to Study To", "Three hours of chill instrumental beats", categoryMusic, "ch-nightwave", "Nightwave", "en", []string{"lofi", "study", "music"}},
		{"Bollywood Hits 2024 Mix", "The biggest Hindi songs of the year in one mix", categoryMusic, "ch-desibeats", "DesiBeats", "hi", []string{"bollywood", "hindi", "music"}},
		{"Speedrunning Elden Ring Any%", "Route breakdown and glitch explanations for the current record", categoryGaming, "ch-framedata", "FrameData", "en", []string{"speedrun", "gaming", "elden"}},
		{"Minecraft Mega Base Tour", "A full tour of our two year survival world build", categoryGaming, "ch-blockworks", "BlockWorks", "en", []string{"minecraft", "building", "survival"}},
		{"Morning News Briefing", "Markets, weather and the day's top stories", categoryNews, "ch-daybreak", "Daybreak News", "en", []string{"news", "briefing", "markets"}},
		{"Election Results Analysis", "What the numbers mean district by district", categoryNews, "ch-daybreak", "Daybreak News", "en", []string{"news", "election", "politics"}},
		{"Perfect Sourdough at Home", "Starter maintenance, shaping and baking schedules", categoryHowTo, "ch-breadcraft", "BreadCraft", "en", []string{"baking", "sourdough", "cooking"}},
		{"Fix a Leaking Tap in 10 Minutes", "Tools, washers and a step by step repair", categoryHowTo, "ch-fixitfast", "FixItFast", "en", []string{"diy", "plumbing", "repair"}},
		{"How Black Holes Evaporate", "Hawking radiation explained without the scary math", categoryScience, "ch-cosmos", "Cosmos Curious", "en", []string{"physics", "space", "blackholes"}},
		{"The James Webb Deep Field", "What the deepest infrared image of the universe shows", categoryScience, "ch-cosmos", "Cosmos Curious", "en", []string{"space", "astronomy", "jwst"}},
		{"Street Food Tour of Tokyo", "Ramen alleys, conveyor sushi and late night yakitori", categoryEnt, "ch-wanderbite", "WanderBite", "ja", []string{"travel", "food", "tokyo"}},
		{"We Tried Viral Kitchen Gadgets", "Testing the gadgets your feed keeps recommending", categoryEnt, "ch-wanderbite", "WanderBite", "en", []string{"food", "gadgets", "review"}},
		{"K-Pop Comeback Stage Compilation", "This week's music show stages in one video", categoryMusic, "ch-seoulsound", "SeoulSound", "ko", []string{"kpop", "music", "stage"}},
		{"Samba Workout Mix", "High energy Brazilian rhythms for your cardio session", categoryMusic, "ch-riogroove", "RioGroove", "pt", []string{"samba", "workout", "music"}},
		{"Rust vs Go for Backend Services", "Benchmarks, ergonomics and hiring realities compared", categoryScience, "ch-gopherlab", "GopherLab", "en", []string{"golang", "rust", "backend"}},
		{"Cricket World Cup Final Highlights", "Every wicket and boundary from the final", categorySports, "ch-pitchside", "Pitchside", "hi", []string{"cricket", "worldcup", "highlights"}},
	}

	// Deterministic stats so trending order is stable across runs.
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	videos := make([]models.Video, 0, len(seeds))
	for i, s := range seeds {
		views := int64(rng.Intn(12_000_000)) + 50_000
		videos = append(videos, models.Video{
			ID:              fmt.Sprintf("cat-%03d", i+1),
			Title:           s.title,
			Description:     s.description,
			Tags:            s.tags,
			CategoryID:      s.category,
			ChannelID:       s.channelID,
			ChannelTitle:    s.channel,
			PublishedAt:     base.AddDate(0, 0, -rng.Intn(120)),
			DefaultLanguage: s.language,
			Statistics: &models.VideoStatistics{
				ViewCount:    views,
				LikeCount:    views / int64(rng.Intn(40)+10),
				CommentCount: views / int64(rng.Intn(400)+100),
			},
		})
	}
	return videos
}
