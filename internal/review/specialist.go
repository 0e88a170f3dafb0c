package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"overdub/internal/services/agents"
)

// fallbackScore is used when a specialist fails or its answer cannot be
// parsed; it lands in the needs-review band so a degraded evaluation never
// auto-approves or auto-rejects on its own.
const fallbackScore = 50

type specialistAnswer struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
	Issues    []struct {
		Severity    string `json:"severity"`
		Description string `json:"description"`
	} `json:"issues"`
}

// evaluateSpecialist runs one specialist conversation to completion: initial
// instruction, bounded tool rounds, and a parsed final answer. The result
// records the conversation thread and when the evaluation finished.
func evaluateSpecialist(ctx context.Context, agent *agents.Agent, dimension Dimension, jobCtx JobContext) SpecialistResult {
	thread := agent.NewThread()
	result := converseSpecialist(ctx, thread, dimension, jobCtx)
	result.ThreadID = thread.ID()
	result.ReviewedAt = time.Now().UTC()
	return result
}

func converseSpecialist(ctx context.Context, thread *agents.Thread, dimension Dimension, jobCtx JobContext) SpecialistResult {
	reply, err := thread.Send(ctx, specialistInstruction(jobCtx))
	if err != nil {
		return degradedResult(dimension, fmt.Sprintf("specialist conversation failed: %v", err))
	}

	reply, err = resolveToolRounds(ctx, thread, jobCtx, reply)
	if err != nil {
		return degradedResult(dimension, fmt.Sprintf("specialist conversation failed: %v", err))
	}

	return parseSpecialistReply(dimension, reply)
}

// resolveToolRounds services the agent's tool requests until it produces a
// final answer or the round budget runs out, at which point the agent is told
// to answer with what it has.
func resolveToolRounds(ctx context.Context, thread *agents.Thread, jobCtx JobContext, reply string) (string, error) {
	for round := 0; round < maxToolRounds; round++ {
		tool, ok := parseToolRequest(reply)
		if !ok {
			return reply, nil
		}
		next, err := thread.Send(ctx, runTool(ctx, jobCtx, tool))
		if err != nil {
			return "", err
		}
		reply = next
	}
	if _, ok := parseToolRequest(reply); ok {
		return thread.Send(ctx, "Tool budget exhausted. Provide your final answer now as the required JSON object.")
	}
	return reply, nil
}

func parseSpecialistReply(dimension Dimension, reply string) SpecialistResult {
	if _, ok := parseToolRequest(reply); ok {
		return degradedResult(dimension, "specialist kept requesting tools instead of answering")
	}
	var answer specialistAnswer
	if err := agents.DecodeJSON(reply, &answer); err != nil {
		return SpecialistResult{
			Dimension: dimension,
			Score:     fallbackScore,
			Reasoning: strings.TrimSpace(reply),
		}
	}

	result := SpecialistResult{
		Dimension: dimension,
		Score:     ClampScore(answer.Score),
		Reasoning: strings.TrimSpace(answer.Reasoning),
	}
	for _, issue := range answer.Issues {
		description := strings.TrimSpace(issue.Description)
		if description == "" {
			continue
		}
		result.Issues = append(result.Issues, Issue{
			Dimension:   dimension,
			Severity:    ParseSeverity(issue.Severity),
			Description: description,
		})
	}
	return result
}

func degradedResult(dimension Dimension, reason string) SpecialistResult {
	return SpecialistResult{
		Dimension:  dimension,
		Score:      fallbackScore,
		Reasoning:  reason,
		Degraded:   true,
		ReviewedAt: time.Now().UTC(),
	}
}
