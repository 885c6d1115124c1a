package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	service "github.com/okian/wudao/internal/app"
	"github.com/okian/wudao/internal/config"
	"github.com/okian/wudao/internal/domain/media"
	"github.com/okian/wudao/internal/domain/pipeline"
	"github.com/okian/wudao/internal/domain/report"
	"github.com/okian/wudao/pkg/logger"
)

type analyzeFlags struct {
	kind    string
	routine string
	json    bool
}

func (f *analyzeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "kind", "", "image or video; detected from the file when empty")
	cmd.Flags().StringVar(&f.routine, "routine", "", "Routine name passed to the scorer")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the report as JSON")
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var flags analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Run a local file through the analysis pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return withAnalysis(cmd.Context(), cfg, args[0], flags, progressWriter(out, flags.json),
				func(_ *service.Session, r report.Report) error {
					if flags.json {
						return printJSON(out, r)
					}
					printReport(out, r)
					return nil
				})
		},
	}
	flags.register(cmd)
	return cmd
}

// withAnalysis runs path through an in-process service and hands the
// completed report to fn while the session is still open.
func withAnalysis(
	ctx context.Context,
	cfg *config.Config,
	path string,
	flags analyzeFlags,
	progress func(pipeline.Snapshot),
	fn func(*service.Session, report.Report) error,
) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	mimeType := detectMIME(path, data)
	kind, err := resolveKind(flags.kind, mimeType)
	if err != nil {
		return err
	}

	svc := service.New(service.OptionsFromConfig(cfg, logger.Get())...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = svc.Stop(context.WithoutCancel(ctx)) }()

	sess, err := svc.CreateSession(ctx, kind)
	if err != nil {
		return err
	}
	if _, err := sess.Intake.Accept(media.File{Name: filepath.Base(path), MIMEType: mimeType, Data: data}); err != nil {
		return err
	}

	updates, cancel := sess.Pipeline.Subscribe()
	defer cancel()
	if err := sess.Analyze(ctx, flags.routine); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			sess.Pipeline.Reset()
			return ctx.Err()
		case snap := <-updates:
			progress(snap)
			switch snap.State.Phase() {
			case pipeline.PhaseComplete:
				r, _ := snap.State.Report()
				return fn(sess, r)
			case pipeline.PhaseFailed:
				reason, _ := snap.State.Reason()
				return fmt.Errorf("analysis failed: %s", reason)
			}
		}
	}
}

func detectMIME(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

func resolveKind(flag, mimeType string) (media.Kind, error) {
	if flag != "" {
		return media.ParseKind(flag)
	}
	major, _, _ := strings.Cut(mimeType, "/")
	kind, err := media.ParseKind(major)
	if err != nil {
		return "", fmt.Errorf("cannot tell image from video for %s; pass --kind: %w", mimeType, err)
	}
	return kind, nil
}

// progressWriter prints each phase change once and upload progress in
// steps; it stays quiet when the report is printed as JSON.
func progressWriter(out io.Writer, quiet bool) func(pipeline.Snapshot) {
	last := pipeline.Phase("")
	return func(snap pipeline.Snapshot) {
		if quiet {
			return
		}
		phase := snap.State.Phase()
		if p, ok := snap.State.Progress(); ok {
			fmt.Fprintf(out, "\ruploading %3d%%", p)
			last = phase
			return
		}
		if phase == last || phase == pipeline.PhaseIdle {
			return
		}
		if last == pipeline.PhaseUploading {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, phase)
		last = phase
	}
}

func printReport(out io.Writer, r report.Report) {
	fmt.Fprintf(out, "Overall: %d (%s)\n", r.OverallScore, report.GradeOf(r.OverallScore))

	metrics := slices.Sorted(maps.Keys(r.Metrics))
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		v := r.Metrics[m]
		rows = append(rows, []string{string(m), strconv.Itoa(v), string(report.GradeOf(v))})
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Score", "Grade"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft}))

	if len(r.Segments) > 0 {
		printSegments(out, r.Segments, -1)
	}
	printList(out, "Issues", r.Issues)
	printList(out, "Suggestions", r.Suggestions)
}

// printSegments renders the segment table, marking index current.
func printSegments(out io.Writer, segments []report.Segment, current int) {
	rows := make([][]string, 0, len(segments))
	for i, seg := range segments {
		mark := ""
		if i == current {
			mark = "▶"
		}
		rows = append(rows, []string{
			mark, string(seg.Start) + "–" + string(seg.End), seg.Name, strconv.Itoa(seg.Score),
			strings.Join(seg.Issues, "; "),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"", "Time", "Segment", "Score", "Issues"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
}

func printList(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(out, "  - %s\n", it)
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
