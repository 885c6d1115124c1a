package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/wudao/internal/domain/timeline"
)

// verifyAnalysis checks the invariants a completed snapshot must hold.
func verifyAnalysis(snap analysisResponse, kind string) error {
	if snap.Progress != nil {
		return errors.New("completed snapshot carries upload progress")
	}
	if snap.Report == nil {
		return errors.New("completed snapshot has no report")
	}
	if s := snap.Report.OverallScore; s < 0 || s > 100 {
		return fmt.Errorf("overall score %d outside 0..100", s)
	}
	if kind == "video" && len(snap.Report.Segments) == 0 {
		return errors.New("video report has no segments")
	}
	return nil
}

// verifyTimeline resolves the midpoint of the first segment and jumps to the
// last one, checking the player commands returned.
func verifyTimeline(ctx context.Context, client *httpClient, base string, snap analysisResponse) error {
	first := snap.Report.Segments[0]
	start, err := timeline.ParseTimecode(first.Start)
	if err != nil {
		return err
	}
	end, err := timeline.ParseTimecode(first.End)
	if err != nil {
		return err
	}

	var h highlightResponse
	mid := strconv.FormatFloat(float64(start+end)/2, 'f', 1, 64)
	status, err := client.get(ctx, base+"/timeline?position="+mid, &h)
	if err != nil {
		return err
	}
	if status != http.StatusOK || h.Index != 0 {
		return fmt.Errorf("timeline at %s: status %d index %d", mid, status, h.Index)
	}

	last := len(snap.Report.Segments) - 1
	var cmds commandsResponse
	status, err = client.postJSON(ctx, base+"/timeline/jump", map[string]int{"segment": last}, &cmds)
	if err != nil {
		return err
	}
	if status != http.StatusOK || len(cmds.Commands) == 0 || cmds.Commands[0].Kind != "seek" {
		return fmt.Errorf("jump to segment %d: status %d commands %v", last, status, cmds.Commands)
	}
	want, err := timeline.ParseTimecode(snap.Report.Segments[last].Start)
	if err != nil {
		return err
	}
	if cmds.Commands[0].Position != float64(want) {
		return fmt.Errorf("jump sought %v, want %d", cmds.Commands[0].Position, want)
	}
	return nil
}

// verifyAnnotations pins two notes out of order, expects them back sorted and
// jumps to the earlier one.
func verifyAnnotations(ctx context.Context, client *httpClient, base string) error {
	for _, pos := range []float64{12.5, 3} {
		var n annotationResponse
		body := map[string]any{"position": pos, "kind": "text", "content": "smoke"}
		status, err := client.postJSON(ctx, base+"/timeline/annotations", body, &n)
		if err != nil {
			return err
		}
		if status != http.StatusCreated || n.ID == "" {
			return fmt.Errorf("annotate at %v: status %d", pos, status)
		}
	}

	var list annotationsResponse
	status, err := client.get(ctx, base+"/timeline/annotations", &list)
	if err != nil {
		return err
	}
	if status != http.StatusOK || len(list.Items) != 2 || list.Items[0].Position > list.Items[1].Position {
		return fmt.Errorf("annotations: status %d items %v", status, list.Items)
	}

	var cmds commandsResponse
	first := list.Items[0]
	status, err = client.postJSON(ctx, base+"/timeline/annotations/"+first.ID+"/jump", struct{}{}, &cmds)
	if err != nil {
		return err
	}
	if status != http.StatusOK || len(cmds.Commands) == 0 || cmds.Commands[0].Position != first.Position {
		return fmt.Errorf("jump to annotation: status %d commands %v", status, cmds.Commands)
	}
	return nil
}

// checkCatalog runs one filtered query against each catalog.
func checkCatalog(ctx context.Context, client *httpClient) error {
	for _, path := range []string{"/catalog/coaches?sort=rating", "/catalog/courses?sort=popular"} {
		var resp catalogResponse
		status, err := client.get(ctx, path, &resp)
		if err != nil {
			return err
		}
		if status != http.StatusOK || resp.Total == 0 {
			return fmt.Errorf("catalog %s: status %d total %d", path, status, resp.Total)
		}
	}
	return nil
}
