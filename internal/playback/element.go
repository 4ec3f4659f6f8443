package playback

import "sync"

// Element is a media element the session can drive. Play may fail, for
// example when the host rejects autoplay; failures that surface later are
// reported back through Synchronizer.PlayFailed.
type Element interface {
	Seek(seconds float64)
	SetRate(r Rate)
	SetVolume(v float64)
	Play() error
	Pause()
}

type Action string

const (
	ActionPlay  Action = "play"
	ActionPause Action = "pause"
)

const (
	TargetPrimary = "primary"
	TargetPreview = "preview"
)

// Command is one batch of property writes for a remote media element,
// optionally closed by a play or pause.
type Command struct {
	Target string
	Seek   *float64
	Rate   *Rate
	Volume *float64
	Action Action
}

const maxQueuedCommands = 64

// CommandQueue is an Element that records writes as commands for a view
// layer that applies them to a real media element later. Consecutive
// property writes merge into one command until a play or pause closes it.
type CommandQueue struct {
	target string

	mu      sync.Mutex
	pending []Command
}

func NewCommandQueue(target string) *CommandQueue {
	return &CommandQueue{target: target}
}

func (q *CommandQueue) Target() string {
	return q.target
}

func (q *CommandQueue) Seek(seconds float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.open().Seek = &seconds
}

func (q *CommandQueue) SetRate(r Rate) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.open().Rate = &r
}

func (q *CommandQueue) SetVolume(v float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.open().Volume = &v
}

func (q *CommandQueue) Play() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.open().Action = ActionPlay
	return nil
}

func (q *CommandQueue) Pause() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.open().Action = ActionPause
}

// Drain returns and clears the queued commands.
func (q *CommandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// open returns the command still accepting writes, starting a new one when
// the last was closed. Oldest commands are dropped past the cap.
func (q *CommandQueue) open() *Command {
	n := len(q.pending)
	if n == 0 || q.pending[n-1].Action != "" {
		if n == maxQueuedCommands {
			q.pending = append(q.pending[:0], q.pending[1:]...)
		}
		q.pending = append(q.pending, Command{Target: q.target})
	}
	return &q.pending[len(q.pending)-1]
}
