package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/wudao/internal/smoke"
	"github.com/okian/wudao/pkg/logger"
)

func newSmokeCommand() *cobra.Command {
	cfg := smoke.Config{}
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Drive a running server through complete analysis sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := smoke.Run(cmd.Context(), cfg, logger.Named("smoke"))
			if stats != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Started", "Completed", "Failed", "Busy", "Timeline", "Catalog", "Duration"},
					[][]string{{
						strconv.Itoa(stats.SessionsStarted),
						strconv.Itoa(stats.SessionsCompleted),
						strconv.Itoa(stats.SessionsFailed),
						strconv.Itoa(stats.Backpressured),
						strconv.Itoa(stats.TimelineChecks),
						strconv.Itoa(stats.CatalogChecks),
						stats.Duration.Round(time.Millisecond).String(),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				for _, f := range stats.Failures {
					fmt.Fprintln(out, "FAIL", f)
				}
			}
			return err
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&cfg.BaseURL, "url", smoke.DefaultBaseURL, "Base URL of the service")
	fs.IntVar(&cfg.Sessions, "sessions", 1, "Number of sessions to walk through")
	fs.IntVar(&cfg.Workers, "workers", 1, "Concurrent sessions")
	fs.StringVar(&cfg.Kind, "kind", "video", "image or video")
	fs.DurationVar(&cfg.Timeout, "timeout", smoke.DefaultTimeout, "HTTP request timeout")
	fs.DurationVar(&cfg.PollInterval, "poll", smoke.DefaultPollInterval, "Analysis poll interval")
	fs.DurationVar(&cfg.Deadline, "deadline", smoke.DefaultDeadline, "Per-session settle deadline")
	return cmd
}
