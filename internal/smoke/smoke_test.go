package smoke_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/wudao/internal/adapters/http/api"
	service "github.com/okian/wudao/internal/app"
	"github.com/okian/wudao/internal/domain/media"
	"github.com/okian/wudao/internal/domain/scoring"
	"github.com/okian/wudao/internal/smoke"
	"github.com/okian/wudao/pkg/logger"
)

func startServer(workers, queue int, latency time.Duration) (*httptest.Server, func()) {
	svc := service.New(
		service.WithWorkerCount(workers),
		service.WithQueueSize(queue),
		service.WithLogger(logger.Nop()),
		service.WithUploader(scoring.NewTickUploader(scoring.WithTick(0))),
		service.WithScorer(scoring.NewSimulatedScorer(
			scoring.WithLatency(media.KindImage, latency),
			scoring.WithLatency(media.KindVideo, latency),
		)),
	)
	So(svc.Start(context.Background()), ShouldBeNil)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	return srv, func() {
		srv.Close()
		_ = svc.Stop(context.Background())
	}
}

func TestRun(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv, stop := startServer(2, 16, 0)
		defer stop()

		Convey("When several video sessions are walked through", func() {
			stats, err := smoke.Run(context.Background(), smoke.Config{
				BaseURL:      srv.URL,
				Sessions:     4,
				Workers:      2,
				Kind:         "video",
				PollInterval: 5 * time.Millisecond,
			}, logger.Nop())

			Convey("Then every session completes with a checked timeline", func() {
				So(err, ShouldBeNil)
				So(stats.SessionsStarted, ShouldEqual, 4)
				So(stats.SessionsCompleted, ShouldEqual, 4)
				So(stats.TimelineChecks, ShouldEqual, 4)
				So(stats.CatalogChecks, ShouldEqual, 1)
				So(stats.Failures, ShouldBeEmpty)
			})
		})

		Convey("When image sessions are walked through", func() {
			stats, err := smoke.Run(context.Background(), smoke.Config{
				BaseURL:      srv.URL,
				Sessions:     2,
				Kind:         "image",
				PollInterval: 5 * time.Millisecond,
			}, logger.Nop())

			Convey("Then no timeline is checked", func() {
				So(err, ShouldBeNil)
				So(stats.SessionsCompleted, ShouldEqual, 2)
				So(stats.TimelineChecks, ShouldEqual, 0)
			})
		})
	})

	Convey("Given an unreachable server", t, func() {
		srv, stop := startServer(1, 1, 0)
		url := srv.URL
		stop()

		Convey("Then the run fails the health check", func() {
			_, err := smoke.Run(context.Background(), smoke.Config{BaseURL: url, Timeout: time.Second}, logger.Nop())
			So(err, ShouldNotBeNil)
		})
	})
}
