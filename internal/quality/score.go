package quality

import (
	"regexp"
	"strings"
)

const (
	// wordCountCap is where the word-count factor saturates.
	wordCountCap = 500

	// sentenceCap is where the sentence-count factor saturates.
	sentenceCap = 5

	// aiScoreThreshold and aiMarkerMinimum gate the AI suspicion flag: the
	// description must score suspiciously well AND read like generated prose.
	aiScoreThreshold = 0.95
	aiMarkerMinimum  = 3
)

var listItemRe = regexp.MustCompile(`(?m)^\s*(?:\d+[.)]|[-*•])\s`)

// QualityScore blends four cheap signals into [0,1]:
// word volume (0.4), character diversity (0.2), punctuation presence (0.2)
// and sentence count (0.2). It is a coarse effort estimate, not a grade.
func QualityScore(description string, wordCount int) float64 {
	if description == "" {
		return 0
	}

	wordFactor := float64(wordCount) / wordCountCap
	if wordFactor > 1 {
		wordFactor = 1
	}

	diversity := charDiversity(description)

	punctuation := 0.0
	if strings.ContainsAny(description, ".,!?;:") {
		punctuation = 1.0
	}

	sentenceFactor := float64(CountSentences(description)) / sentenceCap
	if sentenceFactor > 1 {
		sentenceFactor = 1
	}

	score := 0.4*wordFactor + 0.2*diversity + 0.2*punctuation + 0.2*sentenceFactor
	if score > 1 {
		score = 1
	}
	return score
}

// AISuspected flags descriptions that both score near-perfectly and carry at
// least three structural markers uncommon in casual human answers.
func AISuspected(score float64, description string) bool {
	return score > aiScoreThreshold && StructuralMarkers(description) >= aiMarkerMinimum
}

// StructuralMarkers counts enumerated list items, parenthetical asides and
// semicolons. Each occurrence counts once.
func StructuralMarkers(s string) int {
	markers := len(listItemRe.FindAllString(s, -1))
	markers += strings.Count(s, ";")

	// A parenthetical needs both halves.
	open := strings.Count(s, "(")
	closing := strings.Count(s, ")")
	if closing < open {
		markers += closing
	} else {
		markers += open
	}
	return markers
}

// charDiversity is unique runes over total runes, in (0,1].
func charDiversity(s string) float64 {
	seen := make(map[rune]struct{})
	total := 0
	for _, r := range s {
		seen[r] = struct{}{}
		total++
	}
	if total == 0 {
		return 0
	}
	return float64(len(seen)) / float64(total)
}

// CountSentences splits on '.', '!' and '?' and counts non-blank segments.
func CountSentences(s string) int {
	segments := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	n := 0
	for _, seg := range segments {
		if strings.TrimSpace(seg) != "" {
			n++
		}
	}
	return n
}
