package review

import (
	"math"
	"testing"
)

func TestOverallScoreWeights(t *testing.T) {
	cases := []struct {
		translation, technical, cultural float64
		want                             float64
	}{
		{90, 80, 70, 82.0},
		{100, 100, 100, 100},
		{0, 0, 0, 0},
		{50, 50, 50, 50},
		{200, -10, 50, 55.0},
	}
	for _, tc := range cases {
		got := OverallScore(tc.translation, tc.technical, tc.cultural)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("OverallScore(%v, %v, %v) = %v, want %v", tc.translation, tc.technical, tc.cultural, got, tc.want)
		}
	}
}

func TestRecommendationThresholds(t *testing.T) {
	cases := []struct {
		score       float64
		hasCritical bool
		want        Recommendation
	}{
		{82.0, false, RecommendApprove},
		{80.0, false, RecommendApprove},
		{79.9, false, RecommendNeedsReview},
		{65, false, RecommendNeedsReview},
		{50, false, RecommendNeedsReview},
		{49.9, false, RecommendReject},
		{45, false, RecommendReject},
		{95, true, RecommendNeedsReview},
		{45, true, RecommendReject},
	}
	for _, tc := range cases {
		got := RecommendationFor(tc.score, tc.hasCritical)
		if got != tc.want {
			t.Fatalf("RecommendationFor(%v, %v) = %s, want %s", tc.score, tc.hasCritical, got, tc.want)
		}
	}
}

func TestMergeIssuesDeduplicates(t *testing.T) {
	results := []SpecialistResult{
		{Dimension: DimensionTranslation, Issues: []Issue{
			{Dimension: DimensionTranslation, Severity: SeverityMajor, Description: "mistranslated idiom at cue 12"},
			{Dimension: DimensionTranslation, Severity: SeverityMajor, Description: "mistranslated idiom at cue 12"},
		}},
		{Dimension: DimensionTechnical, Issues: []Issue{
			{Dimension: DimensionTechnical, Severity: SeverityMinor, Description: "overlapping cues"},
		}},
	}
	merged := MergeIssues(results)
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged issues, got %d: %#v", len(merged), merged)
	}
}

func TestHasCritical(t *testing.T) {
	if HasCritical([]Issue{{Severity: SeverityMajor}}) {
		t.Fatal("major should not count as critical")
	}
	if !HasCritical([]Issue{{Severity: SeverityMajor}, {Severity: SeverityCritical}}) {
		t.Fatal("expected critical to be detected")
	}
}

func TestParseSeverityDefaultsToMinor(t *testing.T) {
	if got := ParseSeverity("CRITICAL"); got != SeverityCritical {
		t.Fatalf("expected critical, got %s", got)
	}
	if got := ParseSeverity("blocker"); got != SeverityMinor {
		t.Fatalf("unknown severity should default to minor, got %s", got)
	}
}
