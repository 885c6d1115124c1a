package main

import (
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/wudao/internal/app"
	"github.com/okian/wudao/internal/domain/report"
)

func newTimelineCommand(ctx *commandContext) *cobra.Command {
	var flags analyzeFlags
	var at float64
	cmd := &cobra.Command{
		Use:   "timeline FILE",
		Short: "Analyze a video and show the segment playing at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd.Context())
			if err != nil {
				return err
			}
			if at < 0 {
				return fmt.Errorf("--at must not be negative")
			}
			flags.kind = "video"
			out := cmd.OutOrStdout()
			return withAnalysis(cmd.Context(), cfg, args[0], flags, progressWriter(out, true),
				func(sess *service.Session, _ report.Report) error {
					ts, err := sess.Timeline()
					if err != nil {
						return err
					}
					h := ts.Observe(at)
					printSegments(out, ts.Segments(), h.Index)
					if !h.Found() {
						fmt.Fprintf(out, "%.1fs falls between segments\n", at)
						return nil
					}
					fmt.Fprintf(out, "%.1fs is in %q (%s–%s)\n", at, h.Segment.Name, h.Segment.Start, h.Segment.End)
					return nil
				})
		},
	}
	flags.register(cmd)
	cmd.Flags().Float64Var(&at, "at", 0, "Playback position in seconds")
	return cmd
}
