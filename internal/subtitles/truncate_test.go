package subtitles

import (
	"strings"
	"testing"
)

func TestTruncateForAgentShortContentUnchanged(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:02,000\nHello\n"
	if got := TruncateForAgent(content); got != content {
		t.Fatalf("short content should pass through, got %q", got)
	}
}

func TestTruncateForAgentAddsMarker(t *testing.T) {
	var sb strings.Builder
	for i := 0; sb.Len() < MaxAgentChars+1000; i++ {
		sb.WriteString("a line of subtitle text that keeps going\n")
	}
	got := TruncateForAgent(sb.String())
	if len([]rune(got)) > MaxAgentChars+200 {
		t.Fatalf("truncated content too long: %d runes", len([]rune(got)))
	}
	if !strings.Contains(got, "truncated at 50000 characters") {
		t.Fatalf("expected truncation marker, got tail %q", got[len(got)-80:])
	}
}

func TestTruncateCutsAtLineBoundary(t *testing.T) {
	line := strings.Repeat("x", 99) + "\n"
	content := strings.Repeat(line, 600)
	got := truncate(content, 5000)
	body := got[:strings.Index(got, "[... subtitle")]
	body = strings.TrimRight(body, "\n")
	for _, l := range strings.Split(body, "\n") {
		if len(l) != 99 {
			t.Fatalf("expected whole lines only, found line of length %d", len(l))
		}
	}
}

func TestCountLines(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\n"
	if got := CountLines(content); got != 6 {
		t.Fatalf("expected 6 non-empty lines, got %d", got)
	}
	if got := CountLines(""); got != 0 {
		t.Fatalf("expected 0 lines for empty content, got %d", got)
	}
}
