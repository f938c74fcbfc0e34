package quality

import (
	"strings"
	"unicode"
)

// AttentionPassed reports whether the expected keyword appears as a whole
// word in the description. Matching is case-insensitive; punctuation around
// words is ignored, so "The red square." passes for keyword "red" while
// "hundred" does not.
func AttentionPassed(description, expected string) bool {
	want := tokenize(expected)
	if len(want) == 0 {
		return false
	}
	have := tokenize(description)

	// Multi-word keywords must appear as a contiguous run.
	for i := 0; i+len(want) <= len(have); i++ {
		match := true
		for j := range want {
			if have[i+j] != want[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
