package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Redis     RedisConfig     `json:"redis"`
	Typesense TypesenseConfig `json:"typesense"`
	History   HistoryConfig   `json:"history"`
	Cache     CacheConfig     `json:"cache"`
	Recommend RecommendConfig `json:"recommend"`
}

type ServerConfig struct {
	Port string `json:"port"`
	Mode string `json:"mode"` // debug, release
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type TypesenseConfig struct {
	Enabled    bool   `json:"enabled"`
	Host       string `json:"host"`
	APIKey     string `json:"api_key"`
	Collection string `json:"collection"`
}

type HistoryConfig struct {
	DataDir          string `json:"data_dir"`
	MaxWatchEntries  int    `json:"max_watch_entries"`
	MaxSearchEntries int    `json:"max_search_entries"`
	TopKeywords      int    `json:"top_keywords"`
}

type CacheConfig struct {
	ProfileID  string        `json:"profile_id"`
	FeedTTL    time.Duration `json:"feed_ttl"`
	ContextTTL time.Duration `json:"context_ttl"`
	LocalSize  int           `json:"local_size"`
}

type RecommendConfig struct {
	DefaultLimit  int     `json:"default_limit"`
	MaxLimit      int     `json:"max_limit"`
	TrendingRatio float64 `json:"trending_ratio"`
	DefaultRegion string  `json:"default_region"`

	WeightHistory  float64 `json:"weight_history"`
	WeightCategory float64 `json:"weight_category"`
	WeightTrending float64 `json:"weight_trending"`
	WeightLocation float64 `json:"weight_location"`
	WeightRecency  float64 `json:"weight_recency"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			Password: "",
			DB:       0,
		},
		Typesense: TypesenseConfig{
			Enabled:    false,
			Host:       "http://localhost:8108",
			APIKey:     "xyz",
			Collection: "videos",
		},
		History: HistoryConfig{
			DataDir:          "data/history.db",
			MaxWatchEntries:  100,
			MaxSearchEntries: 50,
			TopKeywords:      20,
		},
		Cache: CacheConfig{
			ProfileID:  "default",
			FeedTTL:    2 * time.Hour,
			ContextTTL: 30 * time.Second,
			LocalSize:  64,
		},
		Recommend: RecommendConfig{
			DefaultLimit:  20,
			MaxLimit:      50,
			TrendingRatio: 0.3,
			DefaultRegion: "US",

			WeightHistory:  0.40,
			WeightCategory: 0.25,
			WeightTrending: 0.20,
			WeightLocation: 0.10,
			WeightRecency:  0.05,
		},
	}
}

// Load builds the config from defaults overlaid with environment variables.
func Load() *Config {
	cfg := DefaultConfig()

	cfg.Server.Port = getenv("PORT", cfg.Server.Port)
	cfg.Server.Mode = getenv("GIN_MODE", cfg.Server.Mode)

	cfg.Redis.Host = getenv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getenv("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = getenv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getenvInt("REDIS_DB", cfg.Redis.DB)

	cfg.Typesense.Enabled = getenvBool("TYPESENSE_ENABLED", cfg.Typesense.Enabled)
	cfg.Typesense.Host = getenv("TYPESENSE_HOST", cfg.Typesense.Host)
	cfg.Typesense.APIKey = getenv("TYPESENSE_API_KEY", cfg.Typesense.APIKey)
	cfg.Typesense.Collection = getenv("TYPESENSE_COLLECTION", cfg.Typesense.Collection)

	cfg.History.DataDir = getenv("DATA_DIR", cfg.History.DataDir)
	cfg.Cache.ProfileID = getenv("PROFILE_ID", cfg.Cache.ProfileID)
	cfg.Recommend.DefaultRegion = getenv("REGION", cfg.Recommend.DefaultRegion)

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
