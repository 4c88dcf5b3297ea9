package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"podbench/internal/api"
	"podbench/internal/client"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and catalog status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				status, err := c.Status(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, status)
				}
				printStatus(cmd, ctx, status)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit raw JSON instead of formatted output")
	return cmd
}

func printStatus(cmd *cobra.Command, ctx *commandContext, status *api.DaemonStatus) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	runningKind := statusOK
	runningDetail := fmt.Sprintf("pid %d", status.PID)
	if !status.Running {
		runningKind = statusError
		runningDetail = "not running"
	}
	fmt.Fprintln(stdout, renderStatusLine("Running", runningKind, runningDetail, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Address", statusInfo, ctx.daemonAddress(), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Catalog", statusInfo, status.CatalogDBPath, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Checks", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, check := range status.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, dep := range status.Dependencies {
		kind := statusOK
		if !dep.Available {
			kind = statusError
			if dep.Optional {
				kind = statusWarn
			}
		}
		detail := dep.Detail
		if detail == "" {
			detail = dep.Command
		}
		fmt.Fprintln(stdout, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	if status.Disk != nil {
		fmt.Fprintln(stdout, renderStatusLine("Disk", statusInfo, status.Disk.Detail, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Episodes", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Catalogued", statusInfo, fmt.Sprintf("%d", status.EpisodeCount), colorize))
	if rows := buildJobCountRows(status.JobCounts); len(rows) > 0 {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, renderTable([]string{"Job Status", "Count"}, rows, 1))
	}
}

func buildJobCountRows(counts map[string]int) [][]string {
	if len(counts) == 0 {
		return nil
	}
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, fmt.Sprintf("%d", counts[key])})
	}
	return rows
}
