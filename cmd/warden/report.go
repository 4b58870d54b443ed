package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strandline/warden/pkg/report"
)

var reportSinkPath string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect recorded reconciliation runs",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reconciliation runs recorded in a bolt report sink",
	Long: `list reads every run recorded by "warden agent --sink bolt" and
prints a one-line summary per run, most recent first.`,
	RunE: runReportList,
}

func init() {
	reportCmd.PersistentFlags().StringVar(&reportSinkPath, "sink-path", "/var/lib/warden", "Path to the bolt report sink's data directory")
	reportCmd.AddCommand(reportListCmd)
}

func runReportList(cmd *cobra.Command, args []string) error {
	sink, err := report.OpenBoltSink(reportSinkPath)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer sink.Close()

	runs, err := sink.ListRuns()
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	for _, run := range runs {
		status := "clean"
		if run.AnyFailed() {
			status = "failed"
		} else if len(run.Reports) > 0 {
			for _, rep := range run.Reports {
				if len(rep.Actions) > 0 {
					status = "changed"
					break
				}
			}
		}

		fmt.Printf("%s  host=%s  started=%s  duration=%s  dry_run=%t  resources=%d  status=%s\n",
			run.ID,
			run.Host,
			run.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			run.EndedAt.Sub(run.StartedAt),
			run.DryRun,
			len(run.Reports),
			status,
		)
	}
	return nil
}
