package review

// Fixed dimension weights. They must sum to 1.
const (
	WeightTranslation = 0.40
	WeightTechnical   = 0.30
	WeightCultural    = 0.30
)

// Recommendation thresholds over the overall score.
const (
	approveThreshold = 80.0
	rejectThreshold  = 50.0
)

// ClampScore bounds a score to [0,100].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// OverallScore computes the fixed-weight aggregate of the three dimension
// scores, clamped to [0,100].
func OverallScore(translation, technical, cultural float64) float64 {
	weighted := WeightTranslation*ClampScore(translation) +
		WeightTechnical*ClampScore(technical) +
		WeightCultural*ClampScore(cultural)
	return ClampScore(weighted)
}

// RecommendationFor maps an overall score to a verdict. A critical issue
// blocks approval regardless of the numeric score.
func RecommendationFor(overall float64, hasCritical bool) Recommendation {
	switch {
	case overall >= approveThreshold:
		if hasCritical {
			return RecommendNeedsReview
		}
		return RecommendApprove
	case overall >= rejectThreshold:
		return RecommendNeedsReview
	default:
		return RecommendReject
	}
}

// HasCritical reports whether any issue is critical.
func HasCritical(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// MergeIssues concatenates specialist issues, dropping duplicates that share
// a dimension and description.
func MergeIssues(results []SpecialistResult) []Issue {
	seen := make(map[string]struct{})
	var merged []Issue
	for _, result := range results {
		for _, issue := range result.Issues {
			key := string(issue.Dimension) + "|" + issue.Description
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, issue)
		}
	}
	return merged
}
