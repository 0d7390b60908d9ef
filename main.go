package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"tubefeed/cache"
	"tubefeed/config"
	"tubefeed/engine"
	"tubefeed/history"
	"tubefeed/models"
	"tubefeed/search"
)

func main() {
	cfg := config.Load()

	if cfg.Server.Mode == "release" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, feed caching disabled")
		rdb = nil
	} else {
		log.Info("redis connected")
	}

	store := openStore(cfg)
	defer store.Close()

	feedCache := cache.New(rdb, cfg.Cache)
	source := buildSource(ctx, cfg)

	rec := engine.New(store, source, feedCache, cfg.Recommend)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		status := map[string]string{"status": "healthy"}
		if err := feedCache.Ping(c.Request.Context()); err != nil {
			status["redis"] = "disconnected"
		} else {
			status["redis"] = "connected"
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: status})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/recommendations", handleRecommendations(rec))
		api.POST("/feed", handleFeed(rec))
		api.POST("/related", handleRelated(rec))
		api.GET("/search", handleSearch(rec))

		api.POST("/events/watch", handleWatchEvent(rec))
		api.POST("/events/search", handleSearchEvent(rec))

		api.POST("/ingest/videos", handleIngest(source))

		api.GET("/history/watch", handleWatchHistory(store))
		api.DELETE("/history/watch", handleClearWatchHistory(store))
		api.GET("/history/search", handleSearchHistory(store))
		api.DELETE("/history/search", handleClearSearchHistory(store))
		api.GET("/history/stats", handleWatchStats(store))

		api.GET("/context", handleContext(rec))
	}

	log.WithField("port", cfg.Server.Port).Info("starting server")
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

// openStore opens the persistent history store, falling back to the
// in-memory backend when the data directory cannot be opened.
func openStore(cfg *config.Config) *history.Store {
	opts := history.Options{
		MaxWatchEntries:  cfg.History.MaxWatchEntries,
		MaxSearchEntries: cfg.History.MaxSearchEntries,
		TopKeywords:      cfg.History.TopKeywords,
	}

	backend, err := history.OpenBitcask(cfg.History.DataDir)
	if err != nil {
		log.WithError(err).Warn("history database unavailable, using in-memory history")
		return history.NewStore(history.NewMemoryBackend(), opts)
	}
	log.WithField("path", cfg.History.DataDir).Info("opened history database")
	return history.NewStore(backend, opts)
}

// buildSource picks the candidate source: the typesense index when enabled
// (bootstrapped with the static catalog), otherwise the catalog alone.
func buildSource(ctx context.Context, cfg *config.Config) engine.CandidateSource {
	catalog := search.NewStaticCatalog()

	if !cfg.Typesense.Enabled {
		return catalog
	}

	index := search.NewVideoIndex(cfg.Typesense)
	if err := index.EnsureCollection(ctx); err != nil {
		log.WithError(err).Warn("typesense unavailable, using static catalog")
		return catalog
	}
	if err := index.IndexVideos(ctx, catalog.Videos()); err != nil {
		log.WithError(err).Warn("failed to bootstrap video index")
	}
	return index
}

func handleRecommendations(rec *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FeedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request format: "+err.Error())
			return
		}

		resp, err := rec.Recommend(c.Request.Context(), &req)
		if err != nil {
			serverError(c, err, "failed to generate recommendations")
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: resp})
	}
}

func handleFeed(rec *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FeedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request format: "+err.Error())
			return
		}

		resp, err := rec.Feed(c.Request.Context(), &req)
		if err != nil {
			serverError(c, err, "failed to build feed")
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: resp})
	}
}

func handleRelated(rec *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FeedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request format: "+err.Error())
			return
		}

		anchor := req.CurrentVideo
		if anchor == nil && req.CurrentVideoID != "" {
			for i := range req.Candidates {
				if req.Candidates[i].ID == req.CurrentVideoID {
					anchor = &req.Candidates[i]
					break
				}
			}
		}
		if anchor == nil {
			badRequest(c, "currentVideo or currentVideoId is required")
			return
		}

		resp, err := rec.Related(c.Request.Context(), anchor, &req)
		if err != nil {
			serverError(c, err, "failed to find related videos")
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: resp})
	}
}

func handleSearch(rec *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			badRequest(c, "q is required")
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

		resp, err := rec.Search(c.Request.Context(), query, limit, c.Query("region"))
		if err != nil {
			serverError(c, err, "search failed")
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: resp})
	}
}

// videoIndexer is implemented by candidate sources that maintain a
// persistent index, e.g. the typesense-backed one.
type videoIndexer interface {
	IndexVideos(ctx context.Context, videos []models.Video) error
}

// handleIngest normalizes a raw upstream video batch and, when the candidate
// source keeps an index, upserts the batch into it. The normalized videos are
// returned either way so clients can reuse them as request candidates.
func handleIngest(source engine.CandidateSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Items []models.APIVideo `json:"items"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request format: "+err.Error())
			return
		}
		if len(req.Items) == 0 {
			badRequest(c, "items is required")
			return
		}

		videos := models.FromAPIBatch(req.Items)

		indexed := false
		if indexer, ok := source.(videoIndexer); ok {
			if err := indexer.IndexVideos(c.Request.Context(), videos); err != nil {
				serverError(c, err, "failed to index videos")
				return
			}
			indexed = true
		}

		c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: gin.H{
			"videos":  videos,
			"indexed": indexed,
		}})
	}
}

func handleWatchEvent(rec *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.WatchEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request format: "+err.Error())
			return
		}

		if err := rec.RecordWatch(c.Request.Context(), req.Video, req.WatchTime); err != nil {
			serverError(c, err, "failed to record watch event")
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "watch event recorded"})
	}
}

func handleSearchEvent(rec *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request format: "+err.Error())
			return
		}

		if err := rec.RecordSearch(req.Query); err != nil {
			serverError(c, err, "failed to record search event")
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "search query recorded"})
	}
}

func handleWatchHistory(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := store.WatchHistory()
		if err != nil {
			serverError(c, err, "failed to read watch history")
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: entries})
	}
}

func handleClearWatchHistory(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.ClearWatchHistory(); err != nil {
			serverError(c, err, "failed to clear watch history")
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "watch history cleared"})
	}
}

func handleSearchHistory(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := store.SearchHistory()
		if err != nil {
			serverError(c, err, "failed to read search history")
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: entries})
	}
}

func handleClearSearchHistory(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.ClearSearchHistory(); err != nil {
			serverError(c, err, "failed to clear search history")
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "search history cleared"})
	}
}

func handleWatchStats(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := store.WatchStats()
		if err != nil {
			serverError(c, err, "failed to compute watch stats")
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: stats})
	}
}

func handleContext(rec *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		uctx := rec.BuildContext(c.Query("region"), nil)
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: uctx})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Error: msg})
}

func serverError(c *gin.Context, err error, msg string) {
	log.WithError(err).Error(msg)
	c.JSON(http.StatusInternalServerError, models.APIResponse{Success: false, Error: msg})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}).Info(fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
