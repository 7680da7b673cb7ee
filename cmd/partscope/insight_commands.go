package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"partscope/internal/api"
)

func newInsightsCommand(ctx *commandContext) *cobra.Command {
	var apply bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "insights ID...",
		Short: "Generate triage recommendations for items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *api.Client) error {
				report, err := client.Insights(cmd.Context(), ids)
				if err != nil {
					return err
				}
				if asJSON && !apply {
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				if len(report.Insights) > 0 {
					fmt.Fprintln(out, renderInsights(report.Insights))
				} else {
					fmt.Fprintln(out, "No insights generated")
				}
				if len(report.Missing) > 0 {
					fmt.Fprintf(out, "No insight for: %s\n", joinIDs(report.Missing))
				}
				if !apply {
					return nil
				}
				applied := make([]api.Item, 0, len(report.Insights))
				for _, in := range report.Insights {
					item, err := client.ApplyInsight(cmd.Context(), in)
					if err != nil {
						return fmt.Errorf("apply insight for item %d: %w", in.ItemID, err)
					}
					applied = append(applied, item)
				}
				if asJSON {
					return writeJSON(cmd, applied)
				}
				fmt.Fprintf(out, "Applied %d recommendation(s)\n", len(applied))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Apply every generated recommendation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newPredictCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "predict FILE",
		Short: "Classify an image without adding it to the inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Predict(cmd.Context(), data)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "score %s, label %s\n", formatScore(&resp.Score), formatLabel(&resp.Label))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the prediction log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			return ctx.withClient(func(client *api.Client) error {
				records, err := client.Predictions(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No predictions recorded")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderPredictions(records))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of records")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
