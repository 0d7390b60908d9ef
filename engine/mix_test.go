package engine

import (
	"fmt"
	"testing"

	"tubefeed/models"
)

func rankedList(prefix string, n int) []models.RankedVideo {
	list := make([]models.RankedVideo, n)
	for i := range list {
		list[i] = models.RankedVideo{Video: models.Video{ID: fmt.Sprintf("%s%d", prefix, i+1)}}
	}
	return list
}

func TestMixInterleavePattern(t *testing.T) {
	trending := rankedList("t", 10)
	personalized := rankedList("p", 20)

	got := Mix(trending, personalized, 0.3)

	// trendingCount = floor(10*0.3) = 3, personalizedCount = 17.
	want := []string{"p1", "p2", "t1", "p3", "p4", "t2", "p5", "p6", "t3"}
	if len(got) < len(want) {
		t.Fatalf("mix too short: %d items", len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}

	pCount, tCount := 0, 0
	for _, item := range got {
		if item.ID[0] == 'p' {
			pCount++
		} else {
			tCount++
		}
	}
	if pCount != 17 {
		t.Errorf("personalized items = %d, want 17", pCount)
	}
	if tCount != 3 {
		t.Errorf("trending items = %d, want 3", tCount)
	}
	if len(got) > len(personalized) {
		t.Errorf("output %d exceeds personalized length %d", len(got), len(personalized))
	}
}

func TestMixNoTrending(t *testing.T) {
	personalized := rankedList("p", 6)

	got := Mix(nil, personalized, 0.3)

	if len(got) != 6 {
		t.Fatalf("got %d items, want 6", len(got))
	}
	for i, item := range got {
		if item.ID != personalized[i].ID {
			t.Fatalf("order changed at %d", i)
		}
	}
}

func TestMixEmptyPersonalized(t *testing.T) {
	if got := Mix(rankedList("t", 10), nil, 0.3); len(got) != 0 {
		t.Fatalf("expected empty mix, got %d items", len(got))
	}
}

func TestMixPersonalizedShorterThanTrendingQuota(t *testing.T) {
	// floor(10*0.5)=5 trending slots against only 2 personalized items:
	// the clamped counts must not panic and the output stays bounded by
	// the personalized length.
	trending := rankedList("t", 10)
	personalized := rankedList("p", 2)

	got := Mix(trending, personalized, 0.5)

	if len(got) > len(personalized) {
		t.Fatalf("output %d exceeds personalized length %d", len(got), len(personalized))
	}
}

func TestMixRatioClamped(t *testing.T) {
	personalized := rankedList("p", 5)

	if got := Mix(rankedList("t", 5), personalized, -0.5); len(got) != 5 {
		t.Fatalf("negative ratio: got %d items, want 5", len(got))
	}
	for _, item := range Mix(rankedList("t", 5), personalized, -0.5) {
		if item.ID[0] != 'p' {
			t.Fatalf("negative ratio admitted trending item %s", item.ID)
		}
	}

	if got := Mix(rankedList("t", 5), personalized, 2.0); len(got) > 5 {
		t.Fatalf("oversized ratio: got %d items", len(got))
	}
}

func TestMixZeroRatio(t *testing.T) {
	got := Mix(rankedList("t", 9), rankedList("p", 9), 0)
	if len(got) != 9 {
		t.Fatalf("got %d, want 9", len(got))
	}
	for _, item := range got {
		if item.ID[0] == 't' {
			t.Fatalf("zero ratio admitted trending item %s", item.ID)
		}
	}
}
