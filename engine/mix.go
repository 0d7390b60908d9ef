package engine

import (
	"math"

	"tubefeed/models"
)

// Mix interleaves trending items into a personalized list at the given
// ratio, emitting two personalized items then one trending item per round.
// The number of trending slots is floor(len(trending) * trendingRatio) and
// the total output never exceeds len(personalized); a source that runs out
// is skipped for the remaining rounds. Counts are clamped so a personalized
// list shorter than the trending quota yields a defined (possibly empty)
// result instead of a negative count.
func Mix(trending, personalized []models.RankedVideo, trendingRatio float64) []models.RankedVideo {
	ratio := clamp(trendingRatio, 0, 1)

	trendingCount := int(math.Floor(float64(len(trending)) * ratio))
	personalizedCount := len(personalized) - trendingCount
	if personalizedCount < 0 {
		personalizedCount = 0
	}

	result := make([]models.RankedVideo, 0, len(personalized))
	tIndex, pIndex := 0, 0

	for len(result) < len(personalized) && (tIndex < trendingCount || pIndex < personalizedCount) {
		if pIndex < personalizedCount {
			result = append(result, personalized[pIndex])
			pIndex++
		}
		if pIndex < personalizedCount && len(result) < len(personalized) {
			result = append(result, personalized[pIndex])
			pIndex++
		}
		if tIndex < trendingCount && len(result) < len(personalized) {
			result = append(result, trending[tIndex])
			tIndex++
		}
	}

	return result
}
