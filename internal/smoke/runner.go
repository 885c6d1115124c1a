package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/wudao/pkg/logger"
)

// errBusy marks a session whose analysis was refused for backpressure.
var errBusy = errors.New("analysis service busy")

// Run walks cfg.Sessions sessions through the API with cfg.Workers in
// flight and returns the collected statistics. A non-nil error means the
// service was unreachable or at least one session misbehaved.
func Run(ctx context.Context, cfg Config, log logger.Logger) (*Stats, error) {
	cfg = withDefaults(cfg)
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("workers", cfg.Workers),
		logger.String("kind", cfg.Kind),
	)

	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	var mu sync.Mutex
	record := func(f func(*Stats)) {
		mu.Lock()
		defer mu.Unlock()
		f(stats)
	}

	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				record(func(s *Stats) { s.SessionsStarted++ })
				err := walkSession(ctx, client, cfg, record)
				switch {
				case err == nil:
					record(func(s *Stats) { s.SessionsCompleted++ })
				case errors.Is(err, errBusy):
					record(func(s *Stats) { s.Backpressured++ })
				default:
					log.Warn(ctx, "session failed", logger.Int("session", n), logger.Error(err))
					record(func(s *Stats) {
						s.SessionsFailed++
						s.Failures = append(s.Failures, fmt.Sprintf("session %d: %v", n, err))
					})
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < cfg.Sessions; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	if err := checkCatalog(ctx, client); err != nil {
		stats.Failures = append(stats.Failures, err.Error())
	} else {
		stats.CatalogChecks++
	}

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "smoke run finished",
		logger.Int("completed", stats.SessionsCompleted),
		logger.Int("failed", stats.SessionsFailed),
		logger.Int("backpressured", stats.Backpressured),
		logger.Duration("duration", stats.Duration),
	)
	if len(stats.Failures) > 0 {
		return stats, fmt.Errorf("%d checks failed", len(stats.Failures))
	}
	return stats, ctx.Err()
}

func withDefaults(cfg Config) Config {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Sessions < 1 {
		cfg.Sessions = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Kind == "" {
		cfg.Kind = "video"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = DefaultDeadline
	}
	return cfg
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *httpClient) error {
	status, err := client.get(ctx, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", status)
	}
	return nil
}

// walkSession creates a session, uploads a synthetic artifact, runs the
// analysis to completion and checks the report, then closes the session.
func walkSession(ctx context.Context, client *httpClient, cfg Config, record func(func(*Stats))) error {
	var sess sessionResponse
	status, err := client.postJSON(ctx, "/sessions", map[string]string{"kind": cfg.Kind}, &sess)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("create session: status %d", status)
	}
	base := "/sessions/" + sess.SessionID
	defer func() {
		_, _ = client.do(context.WithoutCancel(ctx), http.MethodDelete, base, "", nil, nil)
	}()

	mimeType, payload := syntheticArtifact(cfg.Kind)
	status, err = client.do(ctx, http.MethodPut, base+"/artifact?name=smoke", mimeType, payload, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("upload artifact: status %d", status)
	}

	status, err = client.postJSON(ctx, base+"/analysis", map[string]string{"routine": "smoke"}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusAccepted {
		return fmt.Errorf("start analysis: status %d", status)
	}

	final, err := pollAnalysis(ctx, client, base, cfg)
	if err != nil {
		return err
	}
	if err := verifyAnalysis(final, cfg.Kind); err != nil {
		return err
	}
	if cfg.Kind != "video" {
		return nil
	}

	if err := verifyTimeline(ctx, client, base, final); err != nil {
		return err
	}
	if err := verifyAnnotations(ctx, client, base); err != nil {
		return err
	}
	record(func(s *Stats) { s.TimelineChecks++ })
	return nil
}

func pollAnalysis(ctx context.Context, client *httpClient, base string, cfg Config) (analysisResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Deadline)
	defer cancel()
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		var snap analysisResponse
		status, err := client.get(ctx, base+"/analysis", &snap)
		if err != nil {
			return snap, err
		}
		if status != http.StatusOK {
			return snap, fmt.Errorf("poll analysis: status %d", status)
		}
		switch snap.Phase {
		case "complete":
			return snap, nil
		case "failed":
			if snap.Reason == errBusy.Error() {
				return snap, errBusy
			}
			return snap, fmt.Errorf("analysis failed: %s", snap.Reason)
		case "idle":
			return snap, errors.New("analysis was reset")
		}

		select {
		case <-ctx.Done():
			return snap, fmt.Errorf("analysis did not settle: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// syntheticArtifact returns a small body the intake will accept; the server
// never inspects content.
func syntheticArtifact(kind string) (string, []byte) {
	if kind == "image" {
		return "image/png", []byte("\x89PNG\r\n\x1a\nsmoke")
	}
	return "video/mp4", []byte("\x00\x00\x00\x18ftypmp42smoke")
}
