package engine

import (
	"sort"

	"tubefeed/models"
)

// Rank scores every video in the batch against ctx and returns a new list
// sorted descending by score. The input is never mutated, no videos are
// added or dropped, and equal scores keep their input order.
func (s *Scorer) Rank(videos []models.Video, ctx *models.UserContext) []models.RankedVideo {
	ranked := make([]models.RankedVideo, len(videos))
	for i := range videos {
		ranked[i] = models.RankedVideo{
			Video:               videos[i],
			RecommendationScore: s.Score(&videos[i], ctx),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RecommendationScore > ranked[j].RecommendationScore
	})

	return ranked
}
