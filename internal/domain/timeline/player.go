package timeline

import "sync"

// Player is the external media player. Sync only issues commands to it; the
// position is read by the caller and passed in.
type Player interface {
	Seek(seconds float64)
	Play()
	Pause()
}

// CommandKind names a recorded player command.
type CommandKind string

// Recorded command kinds.
const (
	CommandSeek  CommandKind = "seek"
	CommandPlay  CommandKind = "play"
	CommandPause CommandKind = "pause"
)

// Command is one instruction for a remote player.
type Command struct {
	Kind     CommandKind `json:"kind"`
	Position float64     `json:"position,omitempty"`
}

// CommandRecorder is a Player for sessions whose real player lives on the
// client. Commands queue up until the client drains them.
type CommandRecorder struct {
	mu       sync.Mutex
	commands []Command
	position float64
}

// NewCommandRecorder creates an empty recorder.
func NewCommandRecorder() *CommandRecorder {
	return &CommandRecorder{}
}

// Seek records a seek and moves the tracked position.
func (r *CommandRecorder) Seek(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = seconds
	r.commands = append(r.commands, Command{Kind: CommandSeek, Position: seconds})
}

// Play records a play command.
func (r *CommandRecorder) Play() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, Command{Kind: CommandPlay})
}

// Pause records a pause command.
func (r *CommandRecorder) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, Command{Kind: CommandPause})
}

// SetPosition stores the position last reported by the client.
func (r *CommandRecorder) SetPosition(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = seconds
}

// Position returns the last known position.
func (r *CommandRecorder) Position() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

// Drain returns the pending commands in issue order and clears them.
func (r *CommandRecorder) Drain() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.commands
	r.commands = nil
	return out
}
