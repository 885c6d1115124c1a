package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInitWith(t *testing.T) {
	Convey("Given a buffer sink", t, func() {
		var buf bytes.Buffer

		Convey("When initializing with the text format", func() {
			So(InitWith(&buf, FormatText), ShouldBeNil)
			Get().Info(context.Background(), "analysis started", String("session", "s-1"))

			Convey("Then the record is written as key=value text", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "analysis started")
				So(out, ShouldContainSubstring, "session=s-1")
				So(out, ShouldContainSubstring, "source=")
			})
		})

		Convey("When initializing with the json format", func() {
			So(InitWith(&buf, FormatJSON), ShouldBeNil)
			Get().Warn(context.Background(), "late report dropped", Int("generation", 3), Bool("reset", true))

			Convey("Then the record is JSON", func() {
				out := buf.String()
				So(strings.HasPrefix(out, "{"), ShouldBeTrue)
				So(out, ShouldContainSubstring, `"generation":3`)
				So(out, ShouldContainSubstring, `"reset":true`)
			})
		})

		Convey("When the format is unknown", func() {
			err := InitWith(&buf, Format("xml"))

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the writer is nil", func() {
			So(InitWith(nil, FormatText), ShouldNotBeNil)
		})
	})
}

func TestLevels(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, FormatText), ShouldBeNil)

		Convey("Debug is suppressed at the default level", func() {
			Get().Debug(context.Background(), "tick", Duration("interval", 300*time.Millisecond))
			So(buf.Len(), ShouldEqual, 0)
		})

		Convey("Debug is emitted after lowering the level", func() {
			So(SetLevelString("DEBUG"), ShouldBeNil)
			Get().Debug(context.Background(), "tick", Duration("interval", 300*time.Millisecond))
			So(buf.String(), ShouldContainSubstring, "interval=300ms")
			So(SetLevelString("info"), ShouldBeNil)
		})

		Convey("Unknown levels are rejected", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})

		Convey("warning is an alias for warn", func() {
			So(SetLevelString(" warning "), ShouldBeNil)
			Get().Info(context.Background(), "hidden")
			So(buf.Len(), ShouldEqual, 0)
			So(SetLevelString("info"), ShouldBeNil)
		})
	})
}

func TestNamedAndWith(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, FormatText), ShouldBeNil)

		Convey("Named loggers tag the component", func() {
			Named("pipeline").Error(context.Background(), "scorer failed", Error(errors.New("boom")))
			out := buf.String()
			So(out, ShouldContainSubstring, "component=pipeline")
			So(out, ShouldContainSubstring, "error=boom")
		})

		Convey("With carries fields into every record", func() {
			l := Get().With(String("session", "abc"))
			l.Info(context.Background(), "one")
			l.Info(context.Background(), "two")
			So(strings.Count(buf.String(), "session=abc"), ShouldEqual, 2)
		})

		Convey("A nil context is tolerated", func() {
			//nolint:staticcheck // exercising the nil-context guard
			So(func() { Get().Info(nil, "no ctx") }, ShouldNotPanic)
		})
	})
}

func TestNop(t *testing.T) {
	Convey("The nop logger never panics and writes nothing", t, func() {
		l := Nop()
		So(func() {
			l.Error(context.Background(), "x")
			l.Named("y").With(Any("z", 1)).Info(context.Background(), "w")
		}, ShouldNotPanic)
		So(Sync(), ShouldBeNil)
	})
}
