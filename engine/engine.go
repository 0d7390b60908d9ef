// Package engine implements the recommendation pipeline: it derives a user
// context snapshot from the history store, scores candidate batches, ranks
// them, and mixes personalized results with trending items.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"tubefeed/config"
	"tubefeed/keywords"
	"tubefeed/models"
)

// HistoryStore is the behavioral history collaborator. Reads are synchronous
// and side-effect free; the engine reads once at the start of a pass and
// treats any failure as an empty history.
type HistoryStore interface {
	WatchHistory() ([]models.WatchHistoryEntry, error)
	TopCategories(limit int) ([]models.CategoryCount, error)
	TopChannels(limit int) ([]models.ChannelCount, error)
	HistoryKeywords() ([]models.KeywordCount, error)
	WatchedVideoIDs() ([]string, error)
	AddWatchEntry(video models.Video, watchTime int) error
	AddSearchEntry(query string) error
}

// CandidateSource supplies video batches when a request does not carry its
// own externally fetched candidates.
type CandidateSource interface {
	Trending(ctx context.Context, region string, limit int) ([]models.Video, error)
	Search(ctx context.Context, query string, limit int) ([]models.Video, error)
}

// FeedCache caches ranked feeds and derived context snapshots. A nil cache
// disables caching entirely.
type FeedCache interface {
	Feed(ctx context.Context) ([]models.RankedVideo, error)
	StoreFeed(ctx context.Context, items []models.RankedVideo)
	InvalidateFeed(ctx context.Context)
	Context() (*models.UserContext, bool)
	StoreContext(uctx *models.UserContext)
	InvalidateContext()
}

// Engine wires the scoring pipeline to its collaborators.
type Engine struct {
	store  HistoryStore
	source CandidateSource
	cache  FeedCache
	scorer *Scorer
	cfg    config.RecommendConfig
}

func New(store HistoryStore, source CandidateSource, cache FeedCache, cfg config.RecommendConfig) *Engine {
	return &Engine{
		store:  store,
		source: source,
		cache:  cache,
		scorer: NewScorer(cfg, keywords.NewExtractor()),
		cfg:    cfg,
	}
}

// Scorer exposes the engine's scorer for direct score/similarity queries.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// BuildContext assembles the user context snapshot for one scoring pass.
// The history-derived parts come from the store (or the context cache);
// region and anchor video are per-request. A store failure degrades to an
// empty context and is logged, never surfaced.
func (e *Engine) BuildContext(region string, current *models.Video) *models.UserContext {
	if region == "" {
		region = e.cfg.DefaultRegion
	}

	base := e.baseContext()
	return &models.UserContext{
		WatchHistory:    base.WatchHistory,
		TopCategories:   base.TopCategories,
		TopChannels:     base.TopChannels,
		HistoryKeywords: base.HistoryKeywords,
		UserRegion:      region,
		CurrentVideo:    current,
	}
}

func (e *Engine) baseContext() *models.UserContext {
	if e.cache != nil {
		if cached, ok := e.cache.Context(); ok {
			return cached
		}
	}

	uctx := &models.UserContext{}

	watchHistory, err := e.store.WatchHistory()
	if err != nil {
		log.WithError(err).Warn("history store unavailable, scoring with empty context")
		return uctx
	}
	uctx.WatchHistory = watchHistory

	if uctx.TopCategories, err = e.store.TopCategories(5); err != nil {
		log.WithError(err).Warn("top categories unavailable")
	}
	if uctx.TopChannels, err = e.store.TopChannels(5); err != nil {
		log.WithError(err).Warn("top channels unavailable")
	}
	if uctx.HistoryKeywords, err = e.store.HistoryKeywords(); err != nil {
		log.WithError(err).Warn("history keywords unavailable")
	}

	if e.cache != nil {
		e.cache.StoreContext(uctx)
	}
	return uctx
}

// Recommend ranks a candidate batch for the profile. Candidates come from
// the request or, when absent, from the candidate source.
func (e *Engine) Recommend(ctx context.Context, req *models.FeedRequest) (*models.FeedResponse, error) {
	started := time.Now()
	requestID := uuid.New().String()
	limit := e.normalizeLimit(req.Limit)

	candidates, err := e.candidates(ctx, req)
	if err != nil {
		return nil, err
	}

	uctx := e.BuildContext(req.Region, anchorOf(req))

	if req.ExcludeWatched {
		candidates = e.filterWatched(candidates)
	}

	ranked := e.scorer.Rank(candidates, uctx)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	log.WithFields(log.Fields{
		"request_id": requestID,
		"candidates": len(candidates),
		"returned":   len(ranked),
	}).Info("ranked candidate batch")

	return e.response(ranked, requestID, "personalized", false, started), nil
}

// Feed produces the home feed: the personalized ranking interleaved with
// trending items at the configured ratio. Cacheable: a non-realtime request
// without its own candidate batch is served from the feed cache when fresh.
func (e *Engine) Feed(ctx context.Context, req *models.FeedRequest) (*models.FeedResponse, error) {
	started := time.Now()
	requestID := uuid.New().String()
	limit := e.normalizeLimit(req.Limit)

	cacheable := e.cache != nil && !req.RealTime && len(req.Candidates) == 0 && len(req.Trending) == 0
	if cacheable {
		if items, err := e.cache.Feed(ctx); err == nil {
			if len(items) > limit {
				items = items[:limit]
			}
			return e.response(items, requestID, "cached", true, started), nil
		}
	}

	trending := req.Trending
	if len(trending) == 0 && e.source != nil {
		var err error
		trending, err = e.source.Trending(ctx, regionOf(req, e.cfg.DefaultRegion), e.cfg.MaxLimit)
		if err != nil {
			return nil, fmt.Errorf("fetch trending candidates: %w", err)
		}
	}

	candidates := req.Candidates
	if len(candidates) == 0 {
		candidates = trending
	}
	candidates = dedupeByID(candidates)
	if len(candidates) > e.cfg.MaxLimit {
		candidates = candidates[:e.cfg.MaxLimit]
	}

	uctx := e.BuildContext(req.Region, anchorOf(req))

	if req.ExcludeWatched {
		candidates = e.filterWatched(candidates)
	}

	personalized := e.scorer.Rank(candidates, uctx)
	trendingRanked := e.annotate(withoutIDs(trending, idSet(personalized)), uctx)

	mixed := Mix(trendingRanked, personalized, e.cfg.TrendingRatio)
	if len(mixed) > limit {
		mixed = mixed[:limit]
	}

	if cacheable && len(mixed) > 0 {
		go e.cache.StoreFeed(context.WithoutCancel(ctx), mixed)
	}

	log.WithFields(log.Fields{
		"request_id": requestID,
		"trending":   len(trendingRanked),
		"candidates": len(candidates),
		"returned":   len(mixed),
	}).Info("built home feed")

	return e.response(mixed, requestID, "trending_personalized_mix", false, started), nil
}

// Related ranks candidates against an anchor video, excluding the anchor
// itself from the output.
func (e *Engine) Related(ctx context.Context, anchor *models.Video, req *models.FeedRequest) (*models.FeedResponse, error) {
	if anchor == nil {
		return nil, fmt.Errorf("related: anchor video required")
	}
	started := time.Now()
	requestID := uuid.New().String()
	limit := e.normalizeLimit(req.Limit)

	candidates, err := e.candidates(ctx, req)
	if err != nil {
		return nil, err
	}

	filtered := candidates[:0:0]
	for _, v := range candidates {
		if v.ID != anchor.ID {
			filtered = append(filtered, v)
		}
	}

	uctx := e.BuildContext(req.Region, anchor)
	ranked := e.scorer.Rank(filtered, uctx)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return e.response(ranked, requestID, "related", false, started), nil
}

// Search queries the candidate source, records the query in search history,
// and returns the hits personally ranked.
func (e *Engine) Search(ctx context.Context, query string, limit int, region string) (*models.FeedResponse, error) {
	if e.source == nil {
		return nil, fmt.Errorf("search: no candidate source configured")
	}
	started := time.Now()
	requestID := uuid.New().String()
	limit = e.normalizeLimit(limit)

	hits, err := e.source.Search(ctx, query, e.cfg.MaxLimit)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}

	if err := e.store.AddSearchEntry(query); err != nil {
		log.WithError(err).Warn("failed to record search query")
	}

	uctx := e.BuildContext(region, nil)
	ranked := e.scorer.Rank(dedupeByID(hits), uctx)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return e.response(ranked, requestID, "search_personalized", false, started), nil
}

// RecordWatch appends a playback-start event and invalidates the derived
// caches so the next pass sees the new history.
func (e *Engine) RecordWatch(ctx context.Context, video models.Video, watchTime int) error {
	if video.ID == "" {
		return fmt.Errorf("record watch: video id required")
	}
	if err := e.store.AddWatchEntry(video, watchTime); err != nil {
		return fmt.Errorf("record watch: %w", err)
	}
	if e.cache != nil {
		e.cache.InvalidateContext()
		e.cache.InvalidateFeed(ctx)
	}
	return nil
}

// RecordSearch appends a search query to history.
func (e *Engine) RecordSearch(query string) error {
	if err := e.store.AddSearchEntry(query); err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	return nil
}

func (e *Engine) candidates(ctx context.Context, req *models.FeedRequest) ([]models.Video, error) {
	candidates := req.Candidates
	if len(candidates) == 0 && e.source != nil {
		var err error
		candidates, err = e.source.Trending(ctx, regionOf(req, e.cfg.DefaultRegion), e.cfg.MaxLimit)
		if err != nil {
			return nil, fmt.Errorf("fetch candidates: %w", err)
		}
	}
	candidates = dedupeByID(candidates)
	if len(candidates) > e.cfg.MaxLimit {
		candidates = candidates[:e.cfg.MaxLimit]
	}
	return candidates, nil
}

// filterWatched drops candidates already present in the watch history. A
// store failure leaves the batch untouched.
func (e *Engine) filterWatched(videos []models.Video) []models.Video {
	ids, err := e.store.WatchedVideoIDs()
	if err != nil {
		log.WithError(err).Warn("could not filter watched videos")
		return videos
	}
	watched := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		watched[id] = struct{}{}
	}

	filtered := videos[:0:0]
	for _, v := range videos {
		if _, ok := watched[v.ID]; !ok {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// annotate scores videos without reordering them.
func (e *Engine) annotate(videos []models.Video, uctx *models.UserContext) []models.RankedVideo {
	ranked := make([]models.RankedVideo, len(videos))
	for i := range videos {
		ranked[i] = models.RankedVideo{
			Video:               videos[i],
			RecommendationScore: e.scorer.Score(&videos[i], uctx),
		}
	}
	return ranked
}

func (e *Engine) normalizeLimit(limit int) int {
	if limit <= 0 || limit > e.cfg.MaxLimit {
		return e.cfg.DefaultLimit
	}
	return limit
}

func (e *Engine) response(items []models.RankedVideo, requestID, algorithm string, cacheHit bool, started time.Time) *models.FeedResponse {
	if items == nil {
		items = []models.RankedVideo{}
	}
	return &models.FeedResponse{
		Items:     items,
		RequestID: requestID,
		Timestamp: time.Now(),
		Metadata: &models.FeedMetadata{
			Algorithm: algorithm,
			CacheHit:  cacheHit,
			Duration:  time.Since(started).String(),
		},
	}
}

func anchorOf(req *models.FeedRequest) *models.Video {
	return req.CurrentVideo
}

func regionOf(req *models.FeedRequest, fallback string) string {
	if req.Region != "" {
		return req.Region
	}
	return fallback
}

func dedupeByID(videos []models.Video) []models.Video {
	seen := make(map[string]struct{}, len(videos))
	deduped := videos[:0:0]
	for _, v := range videos {
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		deduped = append(deduped, v)
	}
	return deduped
}

func idSet(items []models.RankedVideo) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item.ID] = struct{}{}
	}
	return set
}

func withoutIDs(videos []models.Video, exclude map[string]struct{}) []models.Video {
	kept := videos[:0:0]
	for _, v := range videos {
		if _, ok := exclude[v.ID]; !ok {
			kept = append(kept, v)
		}
	}
	return kept
}
