package subtitles

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxAgentChars is the largest subtitle payload handed to a chat agent.
// Longer documents are truncated so a single tool response cannot blow the
// model's context window.
const MaxAgentChars = 50000

// TruncationMarker is appended to truncated documents so the agent knows the
// content is incomplete.
const TruncationMarker = "\n\n[... subtitle content truncated at %d characters ...]"

// TruncateForAgent bounds a subtitle document to MaxAgentChars runes,
// appending an explicit marker when content was dropped.
func TruncateForAgent(content string) string {
	return truncate(content, MaxAgentChars)
}

func truncate(content string, limit int) string {
	if utf8.RuneCountInString(content) <= limit {
		return content
	}
	runes := []rune(content)[:limit]
	// Cut at the last line boundary inside the window so a caption is never
	// split mid-cue.
	cut := string(runes)
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		cut = cut[:idx]
	}
	return cut + fmt.Sprintf(TruncationMarker, limit)
}

// CountLines returns the number of non-empty lines in a subtitle document.
func CountLines(content string) int {
	count := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}
