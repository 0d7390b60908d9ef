package engine

import "tubefeed/models"

// Similarity measures how alike two videos are, in [0,1]: Jaccard overlap of
// their keyword sets (0.6) plus same-category (0.3) and same-channel (0.1)
// indicators. A zero keyword union contributes 0, never NaN.
func (s *Scorer) Similarity(a, b *models.Video) float64 {
	if a == nil || b == nil {
		return 0
	}

	keywordsA := s.extractor.Extract(a)
	keywordsB := s.extractor.Extract(b)

	setB := make(map[string]struct{}, len(keywordsB))
	for _, k := range keywordsB {
		setB[k] = struct{}{}
	}

	intersection := 0
	union := make(map[string]struct{}, len(keywordsA)+len(keywordsB))
	for _, k := range keywordsA {
		if _, ok := setB[k]; ok {
			intersection++
		}
		union[k] = struct{}{}
	}
	for _, k := range keywordsB {
		union[k] = struct{}{}
	}

	keywordSimilarity := 0.0
	if len(union) > 0 {
		keywordSimilarity = float64(intersection) / float64(len(union))
	}

	categoryMatch := 0.0
	if a.CategoryID == b.CategoryID {
		categoryMatch = 1
	}
	channelMatch := 0.0
	if a.ChannelID == b.ChannelID {
		channelMatch = 1
	}

	return keywordSimilarity*0.6 + categoryMatch*0.3 + channelMatch*0.1
}
