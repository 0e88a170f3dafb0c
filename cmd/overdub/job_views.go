package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"overdub/internal/api"
	"overdub/internal/locales"
)

func buildJobStatsRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildJobListRows(items []api.JobItem) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]api.JobItem, len(items))
	copy(sorted, items)

	sort.Slice(sorted, func(i, j int) bool {
		ti := parseJobTime(sorted[i].CreatedAt)
		tj := parseJobTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			item.JobKey,
			fmt.Sprintf("%s -> %s", item.SourceLocale, item.TargetLocale),
			formatStatusLabel(item.Status),
			formatDisplayTime(item.CreatedAt),
		})
	}
	return rows
}

func printJobDetails(cmd *cobra.Command, item api.JobItem) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %d (%s)\n", item.ID, item.JobKey)
	fmt.Fprintf(out, "  Status:    %s\n", formatStatusLabel(item.Status))
	if item.StatusMessage != "" {
		fmt.Fprintf(out, "  Message:   %s\n", item.StatusMessage)
	}
	fmt.Fprintf(out, "  Locales:   %s (%s) -> %s (%s)\n",
		item.SourceLocale, locales.DisplayName(item.SourceLocale),
		item.TargetLocale, locales.DisplayName(item.TargetLocale))
	if ref := mediaRef(item); ref != "" {
		fmt.Fprintf(out, "  Media:     %s\n", ref)
	}
	if item.VoiceMode != "" {
		fmt.Fprintf(out, "  Voice:     %s\n", item.VoiceMode)
	}
	if item.TranslationID != "" {
		fmt.Fprintf(out, "  Translation: %s\n", item.TranslationID)
	}
	if item.IterationID != "" {
		fmt.Fprintf(out, "  Iteration: %s (#%d)\n", item.IterationID, item.IterationNumber)
	}
	if item.OutputVideo != "" {
		fmt.Fprintf(out, "  Output:    %s\n", item.OutputVideo)
	}
	if item.DegradedSteps > 0 {
		fmt.Fprintf(out, "  Degraded:  %d step(s)\n", item.DegradedSteps)
	}
	if item.NeedsReview {
		reason := item.ReviewReason
		if reason == "" {
			reason = "flagged for manual review"
		}
		fmt.Fprintf(out, "  Needs review: %s\n", reason)
	}
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error:     %s\n", item.ErrorMessage)
	}
	if item.ApprovalDeadline != "" {
		fmt.Fprintf(out, "  Approval deadline: %s\n", formatDisplayTime(item.ApprovalDeadline))
	}
	if item.CreatedAt != "" {
		fmt.Fprintf(out, "  Created:   %s\n", formatDisplayTime(item.CreatedAt))
	}
	if item.UpdatedAt != "" {
		fmt.Fprintf(out, "  Updated:   %s\n", formatDisplayTime(item.UpdatedAt))
	}
}

func mediaRef(item api.JobItem) string {
	if item.MediaURL != "" {
		return item.MediaURL
	}
	return item.MediaPath
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value string) string {
	parsed := parseJobTime(value)
	if parsed.IsZero() {
		return value
	}
	return parsed.Local().Format("2006-01-02 15:04")
}

func parseJobTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
