// Package status holds the user visible state of a map page: title,
// status or error message and the per-dataset summary.
package status

import (
	"fmt"
	"sync"
	"time"
)

// State is the lifecycle of a page load.
type State string

const (
	Idle     State = "idle"
	Loading  State = "loading"
	Rendered State = "rendered"
	Empty    State = "empty"
	Failed   State = "failed"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Rendered || s == Empty || s == Failed
}

var transitions = map[State][]State{
	Idle:    {Loading},
	Loading: {Rendered, Empty, Failed},
}

// Summary is one line of the dataset list.
type Summary struct {
	Name    string `json:"name"`
	Label   string `json:"label,omitempty"`
	Kind    string `json:"geometry"`
	Count   int    `json:"count"`
	Dropped int    `json:"dropped"`
}

// Snapshot is a copy of the board safe to hand out.
type Snapshot struct {
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `json:"title"`
	State       State     `json:"state"`
	Message     string    `json:"message"`
	GeneratedAt string    `json:"generated_at,omitempty"`
	Datasets    []Summary `json:"datasets"`
	IsError     bool      `json:"is_error"`
}

// Board is the presentation surface. Every method is a no-op on a nil
// *Board, so callers never need to check whether a display exists.
type Board struct {
	updatedAt   time.Time
	title       string
	state       State
	message     string
	generatedAt string
	datasets    []Summary
	mu          sync.RWMutex
	isError     bool
}

// New returns an idle board.
func New() *Board {
	return &Board{state: Idle, updatedAt: time.Now()}
}

// SetTitle sets the page title.
func (b *Board) SetTitle(title string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.title = title
	b.touch()
}

// ShowStatus replaces the message with a non-error status.
func (b *Board) ShowStatus(msg string) {
	b.setMessage(msg, false)
}

// ShowError replaces the message with an error.
func (b *Board) ShowError(msg string) {
	b.setMessage(msg, true)
}

// SetGeneratedAt records the payload timestamp reported by the provider.
func (b *Board) SetGeneratedAt(ts string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generatedAt = ts
	b.touch()
}

// ClearDatasets empties the dataset list.
func (b *Board) ClearDatasets() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.datasets = nil
	b.touch()
}

// AddDataset appends one dataset summary.
func (b *Board) AddDataset(s Summary) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.datasets = append(b.datasets, s)
	b.touch()
}

// Transition moves the board to the next lifecycle state.
func (b *Board) Transition(to State) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, allowed := range transitions[b.state] {
		if allowed == to {
			b.state = to
			b.touch()
			return nil
		}
	}

	return fmt.Errorf("invalid state transition %s -> %s", b.state, to)
}

// State returns the current lifecycle state.
func (b *Board) State() State {
	if b == nil {
		return Idle
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Snapshot copies the current board.
func (b *Board) Snapshot() Snapshot {
	if b == nil {
		return Snapshot{State: Idle, Datasets: []Summary{}}
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	datasets := make([]Summary, len(b.datasets))
	copy(datasets, b.datasets)

	return Snapshot{
		Title:       b.title,
		State:       b.state,
		Message:     b.message,
		IsError:     b.isError,
		GeneratedAt: b.generatedAt,
		Datasets:    datasets,
		UpdatedAt:   b.updatedAt,
	}
}

func (b *Board) setMessage(msg string, isError bool) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.message = msg
	b.isError = isError
	b.touch()
}

func (b *Board) touch() {
	b.updatedAt = time.Now()
}
