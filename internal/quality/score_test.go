package quality

import (
	"strings"
	"testing"
)

func TestQualityScore_Bounds(t *testing.T) {
	samples := []string{
		"",
		"short",
		"A full sentence, with punctuation. And another one! Plus a third?",
		strings.Repeat("many different words in a long flowing paragraph. ", 60),
	}
	for _, s := range samples {
		score := QualityScore(s, CountWords(s))
		if score < 0 || score > 1 {
			t.Errorf("Expected score in [0,1]. Got %f for %q", score, truncateForLog(s))
		}
	}
}

func TestQualityScore_EmptyIsZero(t *testing.T) {
	if got := QualityScore("", 0); got != 0 {
		t.Errorf("Expected 0 for empty description. Got: %f", got)
	}
}

func TestQualityScore_RewardsEffort(t *testing.T) {
	lazy := "aaaa aaaa aaaa"
	careful := "The photograph shows a red kayak resting on a pebble beach. " +
		"Two gulls stand near the waterline, and the sky carries low clouds. " +
		"In the distance a lighthouse marks the edge of the bay!"

	lazyScore := QualityScore(lazy, CountWords(lazy))
	carefulScore := QualityScore(careful, CountWords(careful))

	if carefulScore <= lazyScore {
		t.Errorf("Expected the careful description to outscore the lazy one. Got: %f vs %f",
			carefulScore, lazyScore)
	}
}

func TestQualityScore_WordFactorSaturates(t *testing.T) {
	base := strings.Repeat("varied wording keeps flowing here. ", 120) // well past 500 words
	longer := base + base

	a := QualityScore(base, CountWords(base))
	b := QualityScore(longer, CountWords(longer))

	// Past the cap, doubling the text must not raise the word component.
	if b > a+0.05 {
		t.Errorf("Expected saturation past the word cap. Got: %f then %f", a, b)
	}
}

func TestStructuralMarkers_Counting(t *testing.T) {
	text := "First; second; third.\n1. item one\n2. item two\n(an aside)"
	// 2 semicolons + 2 list items + 1 parenthetical = 5.
	if got := StructuralMarkers(text); got != 5 {
		t.Errorf("Expected 5 structural markers. Got: %d", got)
	}
}

func TestStructuralMarkers_UnbalancedParens(t *testing.T) {
	if got := StructuralMarkers("((( no closing"); got != 0 {
		t.Errorf("Expected unmatched parens to count 0. Got: %d", got)
	}
}

func TestAISuspected_RequiresBothSignals(t *testing.T) {
	marked := "Clearly; structured; prose (with asides) follows.\n1. point\n2. point"

	if !AISuspected(0.96, marked) {
		t.Error("Expected suspicion for a high score plus 3+ markers.")
	}
	if AISuspected(0.96, "plain honest text with no structure at all") {
		t.Error("Expected no suspicion without structural markers.")
	}
	if AISuspected(0.80, marked) {
		t.Error("Expected no suspicion below the score threshold.")
	}
	if AISuspected(0.95, marked) {
		t.Error("Expected the threshold to be exclusive at exactly 0.95.")
	}
}

func truncateForLog(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
