package quality

import "strings"

// CountWords splits on Unicode whitespace. The client-reported word count is
// never trusted; this is the only word counter in the system.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
