package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"overdub/internal/logging"
	"overdub/internal/services"
	"overdub/internal/services/agents"
)

// Agent identities, created once per process.
const (
	agentTranslation = "translation-quality-reviewer"
	agentTechnical   = "technical-quality-reviewer"
	agentCultural    = "cultural-adaptation-reviewer"
	agentSummarizer  = "review-summarizer"
)

// Coordinator fans a job out to the three specialists, aggregates their
// scores, and synthesizes a narrative summary.
type Coordinator struct {
	pool   *agents.Pool
	logger *slog.Logger

	mu          sync.Mutex
	specialists map[Dimension]*agents.Agent
	summarizer  *agents.Agent
}

// NewCoordinator builds a Coordinator over the given agent pool.
func NewCoordinator(pool *agents.Pool, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{
		pool:   pool,
		logger: logger,
	}
}

// ensureAgents creates the specialist and summarizer identities on first use.
// Concurrent callers see a single creation.
func (c *Coordinator) ensureAgents() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.specialists != nil {
		return nil
	}

	specialists := make(map[Dimension]*agents.Agent, 3)
	for dimension, name := range map[Dimension]string{
		DimensionTranslation: agentTranslation,
		DimensionTechnical:   agentTechnical,
		DimensionCultural:    agentCultural,
	} {
		agent, err := c.pool.Ensure(name, specialistPrompts[dimension])
		if err != nil {
			return services.Wrap(nil, "review", "ensure agents", fmt.Sprintf("Creating %s failed", name), err)
		}
		specialists[dimension] = agent
	}
	summarizer, err := c.pool.Ensure(agentSummarizer, summarizerPrompt)
	if err != nil {
		return services.Wrap(nil, "review", "ensure agents", "Creating summarizer failed", err)
	}

	c.specialists = specialists
	c.summarizer = summarizer
	return nil
}

// Run produces an AggregatedReview for the job context. Specialist failures
// degrade to fallback scores; only agent-backend setup failures are returned
// as errors.
func (c *Coordinator) Run(ctx context.Context, jobCtx JobContext) (AggregatedReview, error) {
	if err := c.ensureAgents(); err != nil {
		return AggregatedReview{}, err
	}

	dimensions := []Dimension{DimensionTranslation, DimensionTechnical, DimensionCultural}
	results := make([]SpecialistResult, len(dimensions))

	var wg sync.WaitGroup
	for i, dimension := range dimensions {
		wg.Add(1)
		go func(i int, dimension Dimension) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("specialist evaluation panicked",
						logging.String("dimension", string(dimension)),
						logging.Any("panic", r),
					)
					results[i] = degradedResult(dimension, fmt.Sprintf("specialist panicked: %v", r))
				}
			}()
			results[i] = evaluateSpecialist(ctx, c.specialists[dimension], dimension, jobCtx)
		}(i, dimension)
	}
	wg.Wait()

	review := c.aggregate(results)
	review.Summary, review.SummaryThreadID = c.summarize(ctx, jobCtx, results, review)
	return review, nil
}

func (c *Coordinator) aggregate(results []SpecialistResult) AggregatedReview {
	byDimension := make(map[Dimension]SpecialistResult, len(results))
	var degraded []Dimension
	for _, result := range results {
		byDimension[result.Dimension] = result
		if result.Degraded {
			degraded = append(degraded, result.Dimension)
			c.logger.Warn("specialist result degraded",
				logging.String("dimension", string(result.Dimension)),
				logging.String("reason", result.Reasoning),
			)
		}
	}

	issues := MergeIssues(results)
	overall := OverallScore(
		byDimension[DimensionTranslation].Score,
		byDimension[DimensionTechnical].Score,
		byDimension[DimensionCultural].Score,
	)
	hasCritical := HasCritical(issues)

	return AggregatedReview{
		Specialists:      results,
		TranslationScore: byDimension[DimensionTranslation].Score,
		TechnicalScore:   byDimension[DimensionTechnical].Score,
		CulturalScore:    byDimension[DimensionCultural].Score,
		OverallScore:     overall,
		Recommendation:   RecommendationFor(overall, hasCritical),
		IsValid:          !hasCritical,
		Issues:           issues,
		Degraded:         degraded,
		GeneratedAt:      time.Now().UTC(),
	}
}

// summarize runs the summarizer agent once over the specialist outputs,
// returning the narrative and the summarizer's thread id. Failure falls back
// to a generic narrative rather than failing the review.
func (c *Coordinator) summarize(ctx context.Context, jobCtx JobContext, results []SpecialistResult, review AggregatedReview) (string, string) {
	fallback := fmt.Sprintf(
		"Automated review scored %.1f/100 (%s). A narrative summary is unavailable.",
		review.OverallScore, review.Recommendation,
	)

	input, err := json.Marshal(struct {
		SourceLocale   string             `json:"source_locale"`
		TargetLocale   string             `json:"target_locale"`
		Specialists    []SpecialistResult `json:"specialists"`
		OverallScore   float64            `json:"overall_score"`
		Recommendation Recommendation     `json:"recommendation"`
	}{
		SourceLocale:   jobCtx.SourceLocale(),
		TargetLocale:   jobCtx.TargetLocale(),
		Specialists:    results,
		OverallScore:   review.OverallScore,
		Recommendation: review.Recommendation,
	})
	if err != nil {
		return fallback, ""
	}

	thread := c.summarizer.NewThread()
	reply, err := thread.Send(ctx, string(input))
	if err == nil {
		reply, err = resolveToolRounds(ctx, thread, jobCtx, reply)
	}
	if err != nil {
		c.logger.Warn("summarizer failed", logging.Error(err))
		return fallback, thread.ID()
	}

	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := agents.DecodeJSON(reply, &parsed); err != nil || parsed.Summary == "" {
		c.logger.Warn("summarizer returned unparseable output", logging.Error(err))
		return fallback, thread.ID()
	}
	return parsed.Summary, thread.ID()
}
