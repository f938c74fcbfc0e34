package quality

import "testing"

func TestCountWords_Basic(t *testing.T) {
	if got := CountWords("a quiet lake at dawn"); got != 5 {
		t.Errorf("Expected 5 words. Got: %d", got)
	}
}

func TestCountWords_UnicodeWhitespace(t *testing.T) {
	// Tabs, newlines and non-breaking spaces all separate words.
	if got := CountWords("one\ttwo\nthree four"); got != 4 {
		t.Errorf("Expected 4 words. Got: %d", got)
	}
}

func TestCountWords_EmptyAndBlank(t *testing.T) {
	if got := CountWords(""); got != 0 {
		t.Errorf("Expected 0 words for empty string. Got: %d", got)
	}
	if got := CountWords("   \t  "); got != 0 {
		t.Errorf("Expected 0 words for blank string. Got: %d", got)
	}
}
