package keywords

import (
	"reflect"
	"strings"
	"testing"

	"tubefeed/models"
)

func TestExtractBasic(t *testing.T) {
	video := &models.Video{
		ID:          "v1",
		Title:       "The Best Go Tutorial",
		Description: "Learn concurrency with channels and goroutines",
		Tags:        []string{"Golang", "tutorial"},
	}

	got := Extract(video)

	for _, want := range []string{"best", "tutorial", "learn", "concurrency", "channels", "goroutines", "golang"} {
		if !contains(got, want) {
			t.Errorf("expected keyword %q in %v", want, got)
		}
	}
	for _, stop := range []string{"the", "with", "and"} {
		if contains(got, stop) {
			t.Errorf("stop word %q leaked into %v", stop, got)
		}
	}
}

func TestExtractLowercaseAndDeduped(t *testing.T) {
	video := &models.Video{
		Title: "Docker Docker DOCKER",
		Tags:  []string{"docker"},
	}

	got := Extract(video)
	if len(got) != 1 || got[0] != "docker" {
		t.Fatalf("expected single lowercase keyword, got %v", got)
	}
}

func TestExtractShortTokensDropped(t *testing.T) {
	video := &models.Video{Title: "go is ok c++ ai ml engineering"}

	for _, kw := range Extract(video) {
		if len(kw) < 3 {
			t.Errorf("token %q shorter than 3 chars", kw)
		}
	}
}

func TestExtractBounded(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		sb.WriteString("keyword")
		sb.WriteString(strings.Repeat("x", i%7))
		sb.WriteString(" ")
	}
	video := &models.Video{Title: sb.String(), Description: sb.String()}

	got := Extract(video)
	if len(got) > MaxKeywords {
		t.Fatalf("extracted %d keywords, cap is %d", len(got), MaxKeywords)
	}
}

func TestExtractDeterministic(t *testing.T) {
	video := &models.Video{
		ID:          "v2",
		Title:       "Sourdough baking masterclass",
		Description: "Starter maintenance and shaping technique",
		Tags:        []string{"baking", "bread"},
	}

	first := Extract(video)
	second := Extract(video)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("extraction not deterministic: %v vs %v", first, second)
	}
}

func TestExtractEmptyVideo(t *testing.T) {
	if got := Extract(&models.Video{}); len(got) != 0 {
		t.Fatalf("empty video produced keywords: %v", got)
	}
	if got := Extract(nil); got != nil {
		t.Fatalf("nil video produced keywords: %v", got)
	}
}

func TestExtractorCachedMatchesUncached(t *testing.T) {
	extractor := NewExtractor()
	defer extractor.Close()

	video := &models.Video{
		ID:    "v3",
		Title: "Cricket world cup highlights",
		Tags:  []string{"cricket"},
	}

	want := Extract(video)
	for i := 0; i < 3; i++ {
		if got := extractor.Extract(video); !reflect.DeepEqual(got, want) {
			t.Fatalf("call %d: got %v, want %v", i, got, want)
		}
	}
}

func BenchmarkExtract(b *testing.B) {
	video := &models.Video{
		ID:          "bench",
		Title:       "Building a recommendation engine in Go",
		Description: "Scoring, ranking and mixing candidate videos with history signals",
		Tags:        []string{"golang", "recommendations", "ranking"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Extract(video)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
