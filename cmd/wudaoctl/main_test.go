package main

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fastEnv(t *testing.T) {
	t.Setenv("WUDAO_CONFIG", "")
	t.Setenv("WUDAO_UPLOAD_TICK_MS", "0")
	t.Setenv("WUDAO_ANALYSIS_LATENCY_IMAGE_MS", "0")
	t.Setenv("WUDAO_ANALYSIS_LATENCY_VIDEO_MS", "0")
	t.Setenv("WUDAO_WORKER_COUNT", "2")
}

// writeMP4 writes a file whose leading ftyp box sniffs as video/mp4.
func writeMP4(t *testing.T, dir string) string {
	t.Helper()
	data := make([]byte, 32)
	binary.BigEndian.PutUint32(data, 24)
	copy(data[4:], "ftypmp42")
	copy(data[16:], "isommp42")
	path := filepath.Join(dir, "taiji.mp4")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "pose.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n0000"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCatalogCommand(t *testing.T) {
	fastEnv(t)

	Convey("Given the catalog commands", t, func() {
		Convey("Coaches filtered by rating", func() {
			out, err := execute(t, "catalog", "coaches", "--min-rating", "4.7", "--sort", "rating")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "3 of 4 coaches")
		})

		Convey("Courses by level", func() {
			out, err := execute(t, "catalog", "courses", "--level", "入门")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "入门")
			So(out, ShouldContainSubstring, "of 6 courses")
		})

		Convey("An inverted price range is rejected", func() {
			_, err := execute(t, "catalog", "coaches", "--price-min", "500", "--price-max", "100")
			So(err, ShouldNotBeNil)
		})

		Convey("An unknown sort key is rejected", func() {
			_, err := execute(t, "catalog", "courses", "--sort", "nope")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestAnalyzeCommand(t *testing.T) {
	fastEnv(t)
	dir := t.TempDir()

	Convey("Given local artifacts", t, func() {
		Convey("An image is graded without segments", func() {
			out, err := execute(t, "analyze", writePNG(t, dir))
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Overall:")
			So(out, ShouldContainSubstring, "pose_accuracy")
			So(out, ShouldNotContainSubstring, "起势")
		})

		Convey("A video lists its segments", func() {
			out, err := execute(t, "analyze", writeMP4(t, dir))
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "起势")
			So(out, ShouldContainSubstring, "收势")
		})

		Convey("JSON output carries the report only", func() {
			out, err := execute(t, "analyze", "--json", writePNG(t, dir))
			So(err, ShouldBeNil)
			So(out, ShouldStartWith, "{")
			So(out, ShouldContainSubstring, `"overall_score"`)
		})

		Convey("A kind that contradicts the file is rejected", func() {
			_, err := execute(t, "analyze", "--kind", "video", writePNG(t, dir))
			So(err, ShouldNotBeNil)
		})

		Convey("A missing file is reported", func() {
			_, err := execute(t, "analyze", filepath.Join(dir, "missing.png"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestTimelineCommand(t *testing.T) {
	fastEnv(t)
	dir := t.TempDir()

	Convey("Given an analyzed video", t, func() {
		path := writeMP4(t, dir)

		Convey("A position inside a segment names it", func() {
			out, err := execute(t, "timeline", path, "--at", "20")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, `"下蹲转身"`)
		})

		Convey("A position between segments is reported as a gap", func() {
			out, err := execute(t, "timeline", path, "--at", "8.5")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "between segments")
		})

		Convey("A negative position is rejected", func() {
			_, err := execute(t, "timeline", path, "--at", "-1")
			So(err, ShouldNotBeNil)
		})
	})
}
