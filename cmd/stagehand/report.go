package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/stagehand/internal/publish"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Summarize a saved publish report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var report publish.Report
			if err := json.Unmarshal(data, &report); err != nil {
				return fmt.Errorf("decode report: %w", err)
			}
			if report.ReportVersion != publish.ReportVersion {
				fmt.Fprintf(cmd.ErrOrStderr(),
					"warning: report version %q differs from supported %q\n",
					report.ReportVersion, publish.ReportVersion)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "report %s (created %s)\n", report.ID, report.CreatedAt)
			fmt.Fprintf(out, "context: %s\n", report.Context.Label)
			fmt.Fprintf(out, "instances: %d\n", len(report.Instances))

			var passed, skipped, errored int
			for _, record := range report.PluginsData {
				switch {
				case record.Errored:
					errored++
				case record.Skipped:
					skipped++
				case record.Passed:
					passed++
				}
			}
			fmt.Fprintf(out, "plugins: %d passed, %d skipped, %d errored of %d\n",
				passed, skipped, errored, len(report.PluginsData))

			for _, record := range report.PluginsData {
				if !record.Errored {
					continue
				}
				severity := "warning"
				if record.IsBlocking {
					severity = "blocking"
				}
				label := record.Label
				if label == "" {
					label = record.Name
				}
				fmt.Fprintf(out, "  %s: %s error\n", label, severity)
			}

			for path := range report.CrashedFilePaths {
				fmt.Fprintf(out, "discovery crash: %s\n", path)
			}
			return nil
		},
	}

	return cmd
}
