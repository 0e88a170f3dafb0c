package review

import (
	"strings"
	"time"
)

// Dimension names one quality axis a specialist evaluates.
type Dimension string

const (
	DimensionTranslation Dimension = "translation"
	DimensionTechnical   Dimension = "technical"
	DimensionCultural    Dimension = "cultural"
)

// Severity grades an issue found during review.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// ParseSeverity normalizes a model-reported severity, defaulting to minor.
func ParseSeverity(value string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(value))) {
	case SeverityInfo:
		return SeverityInfo
	case SeverityMinor:
		return SeverityMinor
	case SeverityMajor:
		return SeverityMajor
	case SeverityCritical:
		return SeverityCritical
	default:
		return SeverityMinor
	}
}

// Issue is a single problem reported by a specialist.
type Issue struct {
	Dimension   Dimension `json:"dimension"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
}

// SpecialistResult is the outcome of one specialist evaluation. Degraded
// marks results manufactured after a specialist failure.
type SpecialistResult struct {
	Dimension  Dimension `json:"dimension"`
	Score      float64   `json:"score"`
	Reasoning  string    `json:"reasoning"`
	Issues     []Issue   `json:"issues,omitempty"`
	Degraded   bool      `json:"degraded,omitempty"`
	ThreadID   string    `json:"thread_id,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// Recommendation is the review's verdict.
type Recommendation string

const (
	RecommendApprove     Recommendation = "approve"
	RecommendNeedsReview Recommendation = "needs_review"
	RecommendReject      Recommendation = "reject"
)

// AggregatedReview is the full review output persisted on the job.
type AggregatedReview struct {
	Specialists      []SpecialistResult `json:"specialists,omitempty"`

	TranslationScore float64        `json:"translation_score"`
	TechnicalScore   float64        `json:"technical_score"`
	CulturalScore    float64        `json:"cultural_score"`
	OverallScore     float64        `json:"overall_score"`
	Recommendation   Recommendation `json:"recommendation"`
	IsValid          bool           `json:"is_valid"`
	Issues           []Issue        `json:"issues,omitempty"`
	Summary          string         `json:"summary"`
	SummaryThreadID  string         `json:"summary_thread_id,omitempty"`
	Degraded         []Dimension    `json:"degraded,omitempty"`
	GeneratedAt      time.Time      `json:"generated_at"`
}
