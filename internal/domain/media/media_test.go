package media_test

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/okian/wudao/internal/domain/media"
	. "github.com/smartystreets/goconvey/convey"
)

type countingResetter struct{ n int }

func (c *countingResetter) Reset() { c.n++ }

func TestParseKind(t *testing.T) {
	Convey("Given kind names", t, func() {
		k, err := media.ParseKind(" Video ")
		So(err, ShouldBeNil)
		So(k, ShouldEqual, media.KindVideo)

		_, err = media.ParseKind("audio")
		So(errors.Is(err, media.ErrUnknownKind), ShouldBeTrue)

		_, err = media.NewIntake("audio")
		So(errors.Is(err, media.ErrUnknownKind), ShouldBeTrue)
	})
}

func TestVideoIntake(t *testing.T) {
	Convey("Given a video intake bound to a pipeline", t, func() {
		resets := &countingResetter{}
		in, err := media.NewIntake(media.KindVideo, media.WithResetter(resets))
		So(err, ShouldBeNil)

		Convey("When a video is accepted", func() {
			a, err := in.Accept(media.File{Name: "taiji.mp4", MIMEType: "video/mp4", Data: []byte{1, 2, 3}})

			Convey("Then it is held", func() {
				So(err, ShouldBeNil)
				So(a.ID, ShouldNotBeEmpty)
				So(a.Kind, ShouldEqual, media.KindVideo)
				held, ok := in.Artifact()
				So(ok, ShouldBeTrue)
				So(held.ID, ShouldEqual, a.ID)
				So(resets.n, ShouldEqual, 1)
			})

			Convey("Then a second accept silently replaces it", func() {
				b, err := in.Accept(media.File{Name: "b.mov", MIMEType: "video/quicktime", Data: []byte{4}})
				So(err, ShouldBeNil)
				held, _ := in.Artifact()
				So(held.ID, ShouldEqual, b.ID)
				So(held.ID, ShouldNotEqual, a.ID)
				So(resets.n, ShouldEqual, 2)
			})

			Convey("Then clear empties the slot and resets the pipeline", func() {
				in.Clear()
				_, ok := in.Artifact()
				So(ok, ShouldBeFalse)
				So(resets.n, ShouldEqual, 2)

				in.Clear()
				_, ok = in.Artifact()
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a non-video MIME type is offered", func() {
			for _, mt := range []string{"image/png", "application/octet-stream", "", "videox/mp4"} {
				_, err := in.Accept(media.File{Name: "x", MIMEType: mt, Data: []byte{1}})
				So(errors.Is(err, media.ErrInvalidMediaKind), ShouldBeTrue)
			}

			Convey("Then nothing is held and no reset happened", func() {
				_, ok := in.Artifact()
				So(ok, ShouldBeFalse)
				So(resets.n, ShouldEqual, 0)
			})
		})

		Convey("When the MIME type has parameters or upper case", func() {
			a, err := in.Accept(media.File{Name: "x", MIMEType: "Video/MP4; codecs=avc1", Data: []byte{1}})
			So(err, ShouldBeNil)
			So(a.MIMEType, ShouldEqual, "video/mp4")
		})

		Convey("When the file is empty", func() {
			_, err := in.Accept(media.File{Name: "x", MIMEType: "video/mp4"})
			So(errors.Is(err, media.ErrEmptyFile), ShouldBeTrue)
		})
	})
}

func TestImageCapture(t *testing.T) {
	Convey("Given an image intake", t, func() {
		in, err := media.NewIntake(media.KindImage)
		So(err, ShouldBeNil)
		payload := base64.StdEncoding.EncodeToString([]byte("frame"))

		Convey("When a capture frame is accepted", func() {
			url := "data:image/jpeg;base64," + payload
			a, err := in.AcceptCapture("capture.jpg", url)

			So(err, ShouldBeNil)
			So(a.Data, ShouldResemble, []byte("frame"))
			So(a.SourceURL, ShouldEqual, url)
			So(a.MIMEType, ShouldEqual, "image/jpeg")
		})

		Convey("When the data URL is malformed", func() {
			for _, url := range []string{"image/jpeg;base64," + payload, "data:image/jpeg," + payload, "data:image/jpeg;base64,%%%"} {
				_, err := in.AcceptCapture("c", url)
				So(errors.Is(err, media.ErrMalformedDataURL), ShouldBeTrue)
			}
		})

		Convey("When the frame is not an image", func() {
			_, err := in.AcceptCapture("c", "data:video/webm;base64,"+payload)
			So(errors.Is(err, media.ErrInvalidMediaKind), ShouldBeTrue)
		})

		Convey("When a video upload reaches the image intake", func() {
			_, err := in.Accept(media.File{Name: "v", MIMEType: "video/mp4", Data: []byte{1}})
			So(errors.Is(err, media.ErrInvalidMediaKind), ShouldBeTrue)
		})
	})
}

func TestHandoff(t *testing.T) {
	Convey("Given an image intake bound to a pipeline", t, func() {
		resets := &countingResetter{}
		in, err := media.NewIntake(media.KindImage, media.WithResetter(resets))
		So(err, ShouldBeNil)

		Convey("An empty slot hands off the zero artifact", func() {
			var got media.Artifact
			So(in.Handoff(func(a media.Artifact) error { got = a; return nil }), ShouldBeNil)
			So(got.Empty(), ShouldBeTrue)
		})

		Convey("The callback's error is returned", func() {
			boom := errors.New("boom")
			So(in.Handoff(func(media.Artifact) error { return boom }), ShouldEqual, boom)
		})

		Convey("A clear during the handoff waits and then resets", func() {
			held, err := in.Accept(media.File{Name: "pose.png", MIMEType: "image/png", Data: []byte{1}})
			So(err, ShouldBeNil)

			entered := make(chan struct{})
			release := make(chan struct{})
			cleared := make(chan struct{})
			var seen media.Artifact
			go func() {
				_ = in.Handoff(func(a media.Artifact) error {
					seen = a
					close(entered)
					<-release
					return nil
				})
			}()
			<-entered
			go func() {
				in.Clear()
				close(cleared)
			}()

			blocked := true
			select {
			case <-cleared:
				blocked = false
			case <-time.After(20 * time.Millisecond):
			}
			So(blocked, ShouldBeTrue)

			close(release)
			<-cleared
			So(seen.ID, ShouldEqual, held.ID)
			_, ok := in.Artifact()
			So(ok, ShouldBeFalse)
			So(resets.n, ShouldEqual, 2)
		})
	})
}
