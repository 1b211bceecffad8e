package repository

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/brandforge/brandforge-backend/internal/platform/config"
)

func newTestChunker(t *testing.T, minLen, maxLen int) *Chunker {
	t.Helper()
	c, err := NewChunker(config.ChunkerConfig{MinChunkLen: minLen, MaxChunkLen: maxLen})
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	return c
}

func TestChunkerEmptyAndBoilerplateOnly(t *testing.T) {
	c := newTestChunker(t, 5, 500)

	if got := c.Split(""); len(got) != 0 {
		t.Fatalf("empty doc: got %d chunks", len(got))
	}
	doc := "Home\n\nAbout Us\n\nCopyright 2024 Acme Inc. All rights reserved.\n\nPrivacy Policy"
	if got := c.Split(doc); len(got) != 0 {
		t.Fatalf("boilerplate doc: got %d chunks: %+v", len(got), got)
	}
}

func TestChunkerSectionsAndOrder(t *testing.T) {
	c := newTestChunker(t, 5, 500)

	doc := "# Shipping\n\nWe ship worldwide within two business days.\n\n# Returns\n\nReturns are free for thirty days after delivery."
	got := c.Split(doc)
	if len(got) != 2 {
		t.Fatalf("got %d chunks want 2: %+v", len(got), got)
	}
	if got[0].Section != "Shipping" || got[1].Section != "Returns" {
		t.Fatalf("sections = %q, %q", got[0].Section, got[1].Section)
	}
	if got[0].Index != 0 || got[1].Index != 1 {
		t.Fatalf("indexes = %d, %d", got[0].Index, got[1].Index)
	}
	// Chunks preserve source order.
	if !strings.Contains(got[0].Text, "ship worldwide") || !strings.Contains(got[1].Text, "Returns are free") {
		t.Fatalf("order broken: %q then %q", got[0].Text, got[1].Text)
	}
}

func TestChunkerNormalization(t *testing.T) {
	c := newTestChunker(t, 5, 500)

	got := c.Split("Fast,   RELIABLE   Shipping.\tEvery day!")
	if len(got) != 1 {
		t.Fatalf("got %d chunks", len(got))
	}
	want := "fast, reliable shipping. every day!"
	if got[0].Normalized != want {
		t.Fatalf("normalized = %q want %q", got[0].Normalized, want)
	}
}

func TestChunkerDropsShortParagraphs(t *testing.T) {
	c := newTestChunker(t, 50, 500)

	doc := "Too short.\n\nThis paragraph is comfortably longer than fifty characters and must survive."
	got := c.Split(doc)
	if len(got) != 1 {
		t.Fatalf("got %d chunks want 1: %+v", len(got), got)
	}
	for _, ch := range got {
		if utf8.RuneCountInString(ch.Text) < 50 {
			t.Fatalf("chunk below minimum emitted: %q", ch.Text)
		}
	}
}

func TestChunkerRepacksLongParagraphs(t *testing.T) {
	c := newTestChunker(t, 10, 80)

	s1 := "The first sentence talks about our delivery promise in detail."
	s2 := "The second sentence covers the returns policy for all regions."
	s3 := "The third sentence describes customer support availability."
	got := c.Split(s1 + " " + s2 + " " + s3)
	if len(got) != 3 {
		t.Fatalf("got %d chunks want 3: %+v", len(got), got)
	}
	for i, want := range []string{s1, s2, s3} {
		if got[i].Text != want {
			t.Fatalf("chunk %d = %q want %q", i, got[i].Text, want)
		}
		if utf8.RuneCountInString(got[i].Text) > 80 {
			t.Fatalf("chunk %d exceeds max", i)
		}
	}
}

func TestChunkerPacksSentencesGreedily(t *testing.T) {
	c := newTestChunker(t, 5, 60)

	// Two short sentences fit one sub-chunk; the third overflows into the next.
	doc := "We ship fast. We ship far. The third sentence is long enough to overflow the first sub-chunk."
	got := c.Split(doc)
	if len(got) != 2 {
		t.Fatalf("got %d chunks want 2: %+v", len(got), got)
	}
	if got[0].Text != "We ship fast. We ship far." {
		t.Fatalf("first sub-chunk = %q", got[0].Text)
	}
}

func TestChunkerOversizeSentenceEmittedWhole(t *testing.T) {
	c := newTestChunker(t, 5, 40)

	long := "This single sentence has no internal boundary and is far longer than the configured maximum length."
	got := c.Split(long)
	if len(got) != 1 {
		t.Fatalf("got %d chunks want 1: %+v", len(got), got)
	}
	if got[0].Text != long {
		t.Fatalf("oversize sentence was truncated: %q", got[0].Text)
	}
}

func TestChunkerCustomBoilerplatePatterns(t *testing.T) {
	c, err := NewChunker(config.ChunkerConfig{
		MinChunkLen:         5,
		MaxChunkLen:         500,
		BoilerplatePatterns: []string{`(?i)^internal use only`},
	})
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	doc := "Internal use only: do not publish.\n\nCustomers love our same-day delivery."
	got := c.Split(doc)
	if len(got) != 1 || !strings.Contains(got[0].Text, "same-day delivery") {
		t.Fatalf("custom pattern not applied: %+v", got)
	}
}

func TestChunkerRejectsBadPattern(t *testing.T) {
	if _, err := NewChunker(config.ChunkerConfig{
		MinChunkLen:         5,
		MaxChunkLen:         500,
		BoilerplatePatterns: []string{`(`},
	}); err == nil {
		t.Fatalf("expected error for invalid pattern")
	}
}
