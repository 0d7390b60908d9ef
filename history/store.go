// Package history tracks watch and search events and derives the aggregate
// signals the recommendation engine scores against. The persisted layout is
// two JSON-array blobs under fixed keys, capped and ordered newest-first.
package history

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tubefeed/models"
)

const (
	watchHistoryKey  = "watch_history"
	searchHistoryKey = "search_history"
)

// Store is the behavioral history collaborator. Reads are consistent
// snapshots; the two writers serialize read-modify-write under a mutex.
type Store struct {
	mu         sync.Mutex
	backend    Backend
	maxWatch   int
	maxSearch  int
	maxKeyword int
	now        func() time.Time
}

// Options tunes the store caps. Zero values fall back to the defaults the
// original client shipped with (100 watch entries, 50 searches, 20 keywords).
type Options struct {
	MaxWatchEntries  int
	MaxSearchEntries int
	TopKeywords      int
}

// NewStore builds a store over the given backend.
func NewStore(backend Backend, opts Options) *Store {
	if opts.MaxWatchEntries <= 0 {
		opts.MaxWatchEntries = 100
	}
	if opts.MaxSearchEntries <= 0 {
		opts.MaxSearchEntries = 50
	}
	if opts.TopKeywords <= 0 {
		opts.TopKeywords = 20
	}
	return &Store{
		backend:    backend,
		maxWatch:   opts.MaxWatchEntries,
		maxSearch:  opts.MaxSearchEntries,
		maxKeyword: opts.TopKeywords,
		now:        time.Now,
	}
}

// AddWatchEntry records a playback start. Re-watching a video moves its
// entry to the front instead of duplicating it; the list is trimmed to the
// watch cap, evicting the oldest entries.
func (s *Store) AddWatchEntry(video models.Video, watchTime int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadWatch()
	if err != nil {
		return err
	}

	entry := models.WatchHistoryEntry{
		VideoID:      video.ID,
		Title:        video.Title,
		CategoryID:   video.CategoryID,
		ChannelID:    video.ChannelID,
		ChannelTitle: video.ChannelTitle,
		Thumbnail:    video.Thumbnail,
		Timestamp:    s.now(),
		WatchTime:    watchTime,
		Duration:     video.Duration,
		Tags:         video.Tags,
	}
	if entry.Title == "" {
		entry.Title = "Untitled"
	}

	updated := make([]models.WatchHistoryEntry, 0, len(history)+1)
	updated = append(updated, entry)
	for _, h := range history {
		if h.VideoID != video.ID {
			updated = append(updated, h)
		}
	}
	if len(updated) > s.maxWatch {
		updated = updated[:s.maxWatch]
	}

	return s.save(watchHistoryKey, updated)
}

// AddSearchEntry records a search query, deduplicated by trimmed text and
// trimmed to the search cap. Blank queries are ignored.
func (s *Store) AddSearchEntry(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	searches, err := s.loadSearch()
	if err != nil {
		return err
	}

	updated := make([]models.SearchHistoryEntry, 0, len(searches)+1)
	updated = append(updated, models.SearchHistoryEntry{Query: query, Timestamp: s.now()})
	for _, e := range searches {
		if e.NormalizedQuery() != query {
			updated = append(updated, e)
		}
	}
	if len(updated) > s.maxSearch {
		updated = updated[:s.maxSearch]
	}

	return s.save(searchHistoryKey, updated)
}

// WatchHistory returns the full watch history, newest first.
func (s *Store) WatchHistory() ([]models.WatchHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadWatch()
}

// SearchHistory returns the full search history, newest first.
func (s *Store) SearchHistory() ([]models.SearchHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadSearch()
}

// RecentlyWatched returns up to limit most recent watch entries.
func (s *Store) RecentlyWatched(limit int) ([]models.WatchHistoryEntry, error) {
	history, err := s.WatchHistory()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// RecentSearches returns up to limit most recent query strings.
func (s *Store) RecentSearches(limit int) ([]string, error) {
	searches, err := s.SearchHistory()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(searches) > limit {
		searches = searches[:limit]
	}
	queries := make([]string, 0, len(searches))
	for _, e := range searches {
		queries = append(queries, e.Query)
	}
	return queries, nil
}

// TopCategories ranks watched categories by occurrence count.
func (s *Store) TopCategories(limit int) ([]models.CategoryCount, error) {
	history, err := s.WatchHistory()
	if err != nil {
		return nil, err
	}
	return TopCategoriesOf(history, limit), nil
}

// TopChannels ranks watched channels by occurrence count.
func (s *Store) TopChannels(limit int) ([]models.ChannelCount, error) {
	history, err := s.WatchHistory()
	if err != nil {
		return nil, err
	}
	return TopChannelsOf(history, limit), nil
}

// HistoryKeywords ranks the lowercased tags of watched videos by frequency.
func (s *Store) HistoryKeywords() ([]models.KeywordCount, error) {
	history, err := s.WatchHistory()
	if err != nil {
		return nil, err
	}
	return KeywordsOf(history, s.maxKeyword), nil
}

// WatchedVideoIDs returns the IDs of all watched videos, newest first.
func (s *Store) WatchedVideoIDs() ([]string, error) {
	history, err := s.WatchHistory()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(history))
	for _, h := range history {
		ids = append(ids, h.VideoID)
	}
	return ids, nil
}

// HasWatched reports whether the video appears in the watch history.
func (s *Store) HasWatched(videoID string) (bool, error) {
	history, err := s.WatchHistory()
	if err != nil {
		return false, err
	}
	for _, h := range history {
		if h.VideoID == videoID {
			return true, nil
		}
	}
	return false, nil
}

// WatchStats summarizes the watch history.
func (s *Store) WatchStats() (*models.WatchStats, error) {
	history, err := s.WatchHistory()
	if err != nil {
		return nil, err
	}

	total := 0
	for _, h := range history {
		total += h.WatchTime
	}
	avg := 0.0
	if len(history) > 0 {
		avg = float64(total) / float64(len(history))
	}

	recent := history
	if len(recent) > 5 {
		recent = recent[:5]
	}

	return &models.WatchStats{
		TotalVideos:      len(history),
		TotalWatchTime:   total,
		AverageWatchTime: avg,
		TopCategories:    TopCategoriesOf(history, 5),
		RecentlyWatched:  recent,
	}, nil
}

// ClearWatchHistory drops the watch history blob.
func (s *Store) ClearWatchHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Delete(watchHistoryKey)
}

// ClearSearchHistory drops the search history blob.
func (s *Store) ClearSearchHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Delete(searchHistoryKey)
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) loadWatch() ([]models.WatchHistoryEntry, error) {
	data, err := s.backend.Get(watchHistoryKey)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load watch history: %w", err)
	}
	var history []models.WatchHistoryEntry
	if err := json.Unmarshal(data, &history); err != nil {
		// Corrupt blob: start over rather than fail every read.
		log.WithError(err).Warn("watch history blob corrupt, resetting")
		return nil, nil
	}
	return history, nil
}

func (s *Store) loadSearch() ([]models.SearchHistoryEntry, error) {
	data, err := s.backend.Get(searchHistoryKey)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load search history: %w", err)
	}
	var searches []models.SearchHistoryEntry
	if err := json.Unmarshal(data, &searches); err != nil {
		log.WithError(err).Warn("search history blob corrupt, resetting")
		return nil, nil
	}
	return searches, nil
}

func (s *Store) save(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.backend.Put(key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// TopCategoriesOf counts category occurrences in a history snapshot and
// returns them ranked by count. Ties keep a deterministic order.
func TopCategoriesOf(history []models.WatchHistoryEntry, limit int) []models.CategoryCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, h := range history {
		if _, seen := counts[h.CategoryID]; !seen {
			order = append(order, h.CategoryID)
		}
		counts[h.CategoryID]++
	}

	ranked := make([]models.CategoryCount, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, models.CategoryCount{CategoryID: id, Count: counts[id]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// TopChannelsOf counts channel occurrences in a history snapshot and returns
// them ranked by count. Entries without a channel ID are skipped.
func TopChannelsOf(history []models.WatchHistoryEntry, limit int) []models.ChannelCount {
	counts := make(map[string]*models.ChannelCount)
	order := make([]string, 0)
	for _, h := range history {
		if h.ChannelID == "" {
			continue
		}
		c, seen := counts[h.ChannelID]
		if !seen {
			c = &models.ChannelCount{ChannelID: h.ChannelID, ChannelTitle: h.ChannelTitle}
			counts[h.ChannelID] = c
			order = append(order, h.ChannelID)
		}
		c.Count++
	}

	ranked := make([]models.ChannelCount, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, *counts[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// KeywordsOf counts the lowercased tags of a history snapshot and returns
// them ranked by frequency.
func KeywordsOf(history []models.WatchHistoryEntry, limit int) []models.KeywordCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, h := range history {
		for _, tag := range h.Tags {
			normalized := strings.ToLower(tag)
			if _, seen := counts[normalized]; !seen {
				order = append(order, normalized)
			}
			counts[normalized]++
		}
	}

	ranked := make([]models.KeywordCount, 0, len(order))
	for _, tag := range order {
		ranked = append(ranked, models.KeywordCount{Tag: tag, Count: counts[tag]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
