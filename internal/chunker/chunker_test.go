package chunker

import (
	"strings"
	"testing"
)

func TestSplit_SmallTextFitsOnePiece(t *testing.T) {
	parts := Split("Mutexes protect shared data.\n\nUse lock_guard.", 100)
	if len(parts) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(parts))
	}
	if !strings.Contains(parts[0], "lock_guard") {
		t.Errorf("expected piece to keep both paragraphs, got %q", parts[0])
	}
}

func TestSplit_LargeTextRequiresSplitting(t *testing.T) {
	// ~3000 words -> ~3990 tokens at 1.33 tokens/word.
	largeText := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 300)

	parts := Split(largeText, 500)
	if len(parts) < 2 {
		t.Fatalf("expected at least 2 pieces for large text, got %d", len(parts))
	}

	// Sentence boundaries allow slight overflows.
	for i, p := range parts {
		if tokens := EstimateTokens(p); tokens > 1000 {
			t.Errorf("piece %d: %d tokens exceeds 2x target", i, tokens)
		}
	}
}

func TestSplit_ParagraphBoundaries(t *testing.T) {
	text := strings.Repeat("alpha ", 30) + "\n\n" + strings.Repeat("beta ", 30)
	parts := Split(text, 45)
	if len(parts) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(parts))
	}
	if strings.Contains(parts[0], "beta") || strings.Contains(parts[1], "alpha") {
		t.Errorf("paragraphs leaked across pieces: %q / %q", parts[0], parts[1])
	}
}

func TestSplit_EmptyText(t *testing.T) {
	if parts := Split("", 40); len(parts) != 0 {
		t.Errorf("expected 0 pieces, got %d", len(parts))
	}
	if parts := Split("\n\n  \n\n", 40); len(parts) != 0 {
		t.Errorf("expected 0 pieces for blank text, got %d", len(parts))
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First one. Second one! Third? Trailing")
	want := []string{"First one.", "Second one!", "Third?", "Trailing"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		text, term string
		want       int
	}{
		{"std::mutex and a Mutex", "mutex", 2},
		{"MUTEX", "mutex", 1},
		{"nothing here", "mutex", 0},
		{"anything", "", 0},
		{"aaaa", "aa", 2},
	}
	for _, tt := range tests {
		if got := Count(tt.text, tt.term); got != tt.want {
			t.Errorf("Count(%q, %q) = %d, want %d", tt.text, tt.term, got, tt.want)
		}
	}
}

func TestExcerpt_PicksChunkWithMostMatches(t *testing.T) {
	text := strings.Repeat("threads run concurrently ", 20) + "\n\n" +
		"a mutex guards data and the mutex is locked by lock_guard" + "\n\n" +
		strings.Repeat("condition variables wait ", 20)

	got := Excerpt(text, "MUTEX", Config{MaxTokens: 30})
	if Count(got, "mutex") != 2 {
		t.Errorf("expected excerpt with both matches, got %q", got)
	}
	if strings.Contains(got, "\n") {
		t.Errorf("expected single-line excerpt, got %q", got)
	}
}

func TestExcerpt_LongSentenceWindowedAroundMatch(t *testing.T) {
	text := strings.Repeat("filler ", 100) + "mutex " + strings.Repeat("tail ", 100)
	got := Excerpt(text, "mutex", Config{MaxTokens: 20})

	if !strings.Contains(got, "mutex") {
		t.Fatalf("expected match in excerpt, got %q", got)
	}
	if !strings.HasPrefix(got, ellipsis) || !strings.HasSuffix(got, ellipsis) {
		t.Errorf("expected ellipsis on both ends, got %q", got)
	}
	if words := len(strings.Fields(got)); words > 20 {
		t.Errorf("expected excerpt within budget, got %d words", words)
	}
}

func TestExcerpt_MultiWordTermWindowed(t *testing.T) {
	text := strings.Repeat("filler ", 100) + "wait on the Condition Variable until notified " + strings.Repeat("tail ", 100)
	got := Excerpt(text, "condition variable", Config{MaxTokens: 20})

	if !strings.Contains(got, "Condition Variable") {
		t.Fatalf("expected multi-word match in excerpt, got %q", got)
	}
	if !strings.HasPrefix(got, ellipsis) {
		t.Errorf("expected window to move past the opening, got %q", got)
	}
}

func TestMatchWord_StartsInsideWord(t *testing.T) {
	words := strings.Fields("use a std::condition_variable here")
	if i := matchWord(words, "condition_variable"); i != 2 {
		t.Errorf("matchWord = %d, want 2", i)
	}
	if i := matchWord(words, "a std::condition"); i != 1 {
		t.Errorf("matchWord = %d, want 1", i)
	}
	if i := matchWord(words, "absent"); i != 0 {
		t.Errorf("matchWord = %d, want 0", i)
	}
}

func TestExcerpt_NoMatchUsesOpening(t *testing.T) {
	got := Excerpt("Opening line.\n\nLater text.", "absent", Config{MaxTokens: 3})
	if got != "Opening line." {
		t.Errorf("expected opening piece, got %q", got)
	}
}

func TestExcerpt_DefaultConfigFallback(t *testing.T) {
	text := strings.Repeat("word ", 200)
	got := Excerpt(text, "word", Config{})
	if got == "" {
		t.Fatal("expected non-empty excerpt with zero config")
	}
	if len(strings.Fields(strings.Trim(got, "."))) > DefaultConfig().MaxTokens {
		t.Errorf("expected default budget to apply, got %q", got)
	}
}

func TestExcerpt_Empty(t *testing.T) {
	if got := Excerpt("", "mutex", DefaultConfig()); got != "" {
		t.Errorf("expected empty excerpt, got %q", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("expected 0 tokens for empty text")
	}
	if EstimateTokens("a") != 1 {
		t.Error("expected at least 1 token for non-empty text")
	}
	if got := EstimateTokens(strings.Repeat("word ", 100)); got < 130 || got > 134 {
		t.Errorf("expected ~133 tokens for 100 words, got %d", got)
	}
}
