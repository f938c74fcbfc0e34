package quality

import "strings"

// maxIdenticalRun is the longest tolerated run of one repeated character.
const maxIdenticalRun = 100

// CheckSuspicious screens a description for injection markers and degenerate
// repetition. It returns a short reason and true when the content must be
// rejected; rejections are recorded as security violations by the caller.
func CheckSuspicious(description string) (string, bool) {
	lower := strings.ToLower(description)

	for _, marker := range []string{"<script", "javascript:", "onerror="} {
		if strings.Contains(lower, marker) {
			return "potentially malicious content: " + marker, true
		}
	}

	if run := longestRun(description); run > maxIdenticalRun {
		return "excessive character repetition", true
	}

	return "", false
}

// longestRun returns the length of the longest run of one identical rune.
func longestRun(s string) int {
	var prev rune
	run, longest := 0, 0
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = r
	}
	return longest
}
