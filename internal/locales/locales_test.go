package locales_test

import (
	"testing"

	"overdub/internal/locales"
)

func TestNormalize(t *testing.T) {
	got, err := locales.Normalize(" en-us ")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != "en-US" {
		t.Fatalf("Normalize = %q, want en-US", got)
	}

	if _, err := locales.Normalize("not a tag"); err == nil {
		t.Fatal("expected invalid tag to fail")
	}
}

func TestEqual(t *testing.T) {
	if !locales.Equal("en-US", "en-us") {
		t.Fatal("expected case-insensitive match")
	}
	if locales.Equal("en-US", "en-GB") {
		t.Fatal("expected distinct regions to differ")
	}
	if locales.Equal("en-US", "es-MX") {
		t.Fatal("expected distinct languages to differ")
	}
}

func TestDisplayName(t *testing.T) {
	if got := locales.DisplayName("es-MX"); got != "Mexican Spanish" && got != "Spanish (Mexico)" {
		t.Fatalf("DisplayName = %q", got)
	}
	if got := locales.DisplayName("???"); got != "???" {
		t.Fatalf("DisplayName passthrough = %q", got)
	}
}
