package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"overdub/internal/api"
	"overdub/internal/ipc"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var req api.SubmitRequest
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new translation job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobSubmit(ipc.JobSubmitRequest{Submit: req})
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Item)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %d (%s) %s -> %s\n",
					resp.Item.ID, resp.Item.JobKey, resp.Item.SourceLocale, resp.Item.TargetLocale)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.SourceLocale, "source", "", "Source locale (BCP 47, e.g. en-US)")
	cmd.Flags().StringVar(&req.TargetLocale, "target", "", "Target locale (BCP 47, e.g. es-MX)")
	cmd.Flags().StringVar(&req.MediaURL, "media-url", "", "Remote media URL")
	cmd.Flags().StringVar(&req.MediaPath, "media-path", "", "Local media path")
	cmd.Flags().StringVar(&req.VoiceMode, "voice-mode", "", "Voice mode for the dub")
	cmd.Flags().IntVar(&req.SpeakerCount, "speakers", 0, "Number of speakers (0 for auto)")
	cmd.Flags().IntVar(&req.SubtitleChars, "subtitle-chars", 0, "Maximum subtitle characters per line")
	cmd.Flags().IntVar(&req.SubtitleLines, "subtitle-lines", 0, "Maximum subtitle lines per cue")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage translation jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsStatsCommand(ctx))
	jobsCmd.AddCommand(newJobsRetryCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobList(listStatuses)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Items)
				}
				if len(resp.Items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Job", "Locales", "Status", "Created"},
					buildJobListRows(resp.Items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newJobsStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show job counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobStats()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Counts)
				}
				rows := buildJobStatsRows(resp.Counts)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newJobsRetryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry [id...]",
		Short: "Reset failed jobs for another attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseJobID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobRetry(ids)
				if err != nil {
					return err
				}
				if resp.Updated == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No failed jobs to retry")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retrying %d job(s)\n", resp.Updated)
				return nil
			})
		},
	}
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobDescribe(id)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Item)
				}
				printJobDetails(cmd, resp.Item)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newApproveCommand(ctx *commandContext) *cobra.Command {
	var reviewer string
	var comments string

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a job awaiting review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobDecide(ipc.JobDecideRequest{
					ID: id,
					Decision: api.DecisionRequest{
						Approved: true,
						Reviewer: reviewer,
						Comments: comments,
					},
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Approved job %d (%s)\n", resp.Item.ID, resp.Item.JobKey)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reviewer, "reviewer", "", "Name of the approving reviewer")
	cmd.Flags().StringVar(&comments, "comments", "", "Optional reviewer comments")
	_ = cmd.MarkFlagRequired("reviewer")
	return cmd
}

func newRejectCommand(ctx *commandContext) *cobra.Command {
	var reviewer string
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a job awaiting review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobDecide(ipc.JobDecideRequest{
					ID: id,
					Decision: api.DecisionRequest{
						Approved: false,
						Reviewer: reviewer,
						Reason:   reason,
					},
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rejected job %d (%s)\n", resp.Item.ID, resp.Item.JobKey)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reviewer, "reviewer", "", "Name of the rejecting reviewer")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason for the rejection")
	_ = cmd.MarkFlagRequired("reviewer")
	return cmd
}

func parseJobID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("job id must be a positive integer")
	}
	return id, nil
}
