package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"partscope/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server health and preflight checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				health, err := client.Health(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, health)
				}
				out := cmd.OutOrStdout()
				for _, line := range renderHealth(client.BaseURL(), health, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func renderHealth(server string, health api.HealthResponse, colorize bool) []string {
	lines := renderSectionHeader("partscoped", colorize)

	serverKind := statusOK
	if health.Status != "ok" {
		serverKind = statusWarn
	}
	lines = append(lines,
		renderStatusLine("Server", serverKind, fmt.Sprintf("%s (%s)", server, health.Status), colorize),
		renderStatusLine("Items", statusInfo, fmt.Sprint(health.Items), colorize),
		renderStatusLine("Classifier", statusInfo, health.Classifier, colorize),
		renderStatusLine("Insights", statusInfo, health.Insights, colorize),
	)

	if len(health.Checks) == 0 {
		return lines
	}
	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Preflight", colorize)...)
	for _, check := range health.Checks {
		kind := statusOK
		detail := strings.TrimSpace(check.Detail)
		if !check.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(check.Name, kind, detail, colorize))
	}
	return lines
}
