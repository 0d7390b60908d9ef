package engine

import (
	"math"
	"testing"

	"tubefeed/models"
)

func TestSimilaritySelf(t *testing.T) {
	s := newTestScorer()
	video := &models.Video{
		ID:         "v1",
		Title:      "Street food tour of Tokyo",
		CategoryID: "24",
		ChannelID:  "ch-wanderbite",
		Tags:       []string{"travel", "food"},
	}

	if got := s.Similarity(video, video); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("self similarity = %f, want 1.0", got)
	}
}

func TestSimilarityDisjoint(t *testing.T) {
	s := newTestScorer()
	a := &models.Video{ID: "a", Title: "quantum entanglement basics", CategoryID: "28", ChannelID: "ch-1"}
	b := &models.Video{ID: "b", Title: "sourdough shaping technique", CategoryID: "26", ChannelID: "ch-2"}

	if got := s.Similarity(a, b); got != 0 {
		t.Fatalf("disjoint similarity = %f, want 0", got)
	}
}

func TestSimilarityComponents(t *testing.T) {
	s := newTestScorer()

	// Same category and channel, no keyword overlap: 0.3 + 0.1.
	a := &models.Video{ID: "a", Title: "alpha bravo charlie", CategoryID: "10", ChannelID: "ch-x"}
	b := &models.Video{ID: "b", Title: "delta echo foxtrot", CategoryID: "10", ChannelID: "ch-x"}

	if got := s.Similarity(a, b); math.Abs(got-0.4) > 1e-9 {
		t.Fatalf("got %f, want 0.4", got)
	}
}

func TestSimilarityZeroUnion(t *testing.T) {
	s := newTestScorer()

	// No keywords on either side: the Jaccard term must contribute 0, not NaN.
	a := &models.Video{ID: "a", CategoryID: "10", ChannelID: "ch-x"}
	b := &models.Video{ID: "b", CategoryID: "10", ChannelID: "ch-x"}

	got := s.Similarity(a, b)
	if math.IsNaN(got) {
		t.Fatal("similarity is NaN with empty keyword union")
	}
	if math.Abs(got-0.4) > 1e-9 {
		t.Fatalf("got %f, want 0.4", got)
	}
}

func TestSimilarityRange(t *testing.T) {
	s := newTestScorer()
	videos := []*models.Video{
		{ID: "1", Title: "golang testing deep dive", CategoryID: "28", ChannelID: "a", Tags: []string{"golang"}},
		{ID: "2", Title: "golang generics explained", CategoryID: "28", ChannelID: "b", Tags: []string{"golang"}},
		{ID: "3", Title: "piano practice routine", CategoryID: "10", ChannelID: "c"},
		{ID: "4"},
	}

	for _, a := range videos {
		for _, b := range videos {
			if got := s.Similarity(a, b); got < 0 || got > 1.0000001 {
				t.Errorf("similarity(%s,%s) = %f out of [0,1]", a.ID, b.ID, got)
			}
		}
	}
}
