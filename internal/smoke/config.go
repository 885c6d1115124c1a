// Package smoke drives a running server through complete analysis sessions
// over HTTP and checks the answers.
package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Sessions     int           // Number of sessions walked through
	Workers      int           // Number of concurrent sessions
	Kind         string        // image or video
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between analysis polls
	Deadline     time.Duration // Upper bound for one session to settle
}

// Default configuration values.
const (
	DefaultBaseURL      = "http://localhost:9080"
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 250 * time.Millisecond
	DefaultDeadline     = 2 * time.Minute
)

// Stats holds run statistics.
type Stats struct {
	SessionsStarted   int
	SessionsCompleted int
	SessionsFailed    int
	Backpressured     int
	TimelineChecks    int
	CatalogChecks     int
	Failures          []string
	StartTime         time.Time
	Duration          time.Duration
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
}

type analysisResponse struct {
	RunID    string `json:"run_id"`
	Phase    string `json:"phase"`
	Progress *int   `json:"progress"`
	Reason   string `json:"reason"`
	Report   *struct {
		OverallScore int `json:"overall_score"`
		Segments     []struct {
			Start string `json:"start"`
			End   string `json:"end"`
			Name  string `json:"name"`
		} `json:"segments"`
	} `json:"report"`
}

type highlightResponse struct {
	Index int `json:"index"`
}

type commandsResponse struct {
	Playing  bool `json:"playing"`
	Commands []struct {
		Kind     string  `json:"kind"`
		Position float64 `json:"position"`
	} `json:"commands"`
}

type annotationResponse struct {
	ID       string  `json:"id"`
	Position float64 `json:"position"`
}

type annotationsResponse struct {
	Items []annotationResponse `json:"items"`
}

type catalogResponse struct {
	Total int `json:"total"`
}
