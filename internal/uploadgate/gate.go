// Package uploadgate accepts a candidate file from a picker or a drop
// region, enforces the acceptance policy and hands accepted files to a
// caller-supplied handler, one at a time.
package uploadgate

import (
	"context"
	"fmt"
	"sync"

	"github.com/brickify/web/internal/models"
)

// State is the gate's interaction state.
type State string

const (
	StateIdle       State = "idle"
	StateDragActive State = "drag-active"
	StateBusy       State = "busy"
)

// Handler performs the actual submission of an accepted file.
type Handler func(ctx context.Context, file models.SelectedFile) error

// Notifier receives user-facing messages for every failed submission.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify calls f(message).
func (f NotifierFunc) Notify(message string) { f(message) }

// Option configures a Gate.
type Option func(*Gate)

// WithPolicy replaces the default acceptance policy.
func WithPolicy(p Policy) Option {
	return func(g *Gate) { g.policy = p }
}

// WithNotifier sets the sink for user-facing failure messages.
func WithNotifier(n Notifier) Option {
	return func(g *Gate) { g.notifier = n }
}

// Gate is a single-flight upload gate. It is safe for concurrent use.
type Gate struct {
	mu        sync.Mutex
	state     State
	policy    Policy
	handler   Handler
	notifier  Notifier
	observers []func(from, to State)
}

// New creates a gate in the Idle state.
func New(handler Handler, opts ...Option) *Gate {
	g := &Gate{
		state:   StateIdle,
		policy:  DefaultPolicy(),
		handler: handler,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Policy returns the acceptance policy in effect.
func (g *Gate) Policy() Policy {
	return g.policy
}

// OnStateChange registers fn to be called after every transition.
// Observers run outside the gate's lock, in registration order.
func (g *Gate) OnStateChange(fn func(from, to State)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.observers = append(g.observers, fn)
}

// DragEnter marks the drop region as hovered. Ignored unless Idle.
func (g *Gate) DragEnter() {
	g.transition(StateIdle, StateDragActive)
}

// DragLeave clears the hover state.
func (g *Gate) DragLeave() {
	g.transition(StateDragActive, StateIdle)
}

// Drop ends the hover state and submits the first dropped file.
func (g *Gate) Drop(ctx context.Context, files []models.SelectedFile) error {
	g.transition(StateDragActive, StateIdle)
	return g.Select(ctx, files)
}

// Select submits the first of the picked files. An empty selection is a
// no-op.
func (g *Gate) Select(ctx context.Context, files []models.SelectedFile) error {
	if len(files) == 0 {
		return nil
	}
	return g.Submit(ctx, files[0])
}

// Submit validates file and, if accepted, runs the handler and waits for
// it to settle. A submission made while another is in flight returns
// ErrBusy without reaching the handler.
func (g *Gate) Submit(ctx context.Context, file models.SelectedFile) error {
	g.mu.Lock()
	if g.state == StateBusy {
		g.mu.Unlock()
		g.notify(ErrBusy)
		return ErrBusy
	}
	if err := g.policy.Validate(file); err != nil {
		g.mu.Unlock()
		g.notify(err)
		return err
	}
	from := g.state
	g.state = StateBusy
	observers := g.snapshotObservers()
	g.mu.Unlock()
	fire(observers, from, StateBusy)

	err := g.run(ctx, file)

	g.mu.Lock()
	g.state = StateIdle
	observers = g.snapshotObservers()
	g.mu.Unlock()
	fire(observers, StateBusy, StateIdle)

	if err != nil {
		g.notify(err)
		return fmt.Errorf("submitting %q: %w", file.Name, err)
	}
	return nil
}

func (g *Gate) run(ctx context.Context, file models.SelectedFile) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("upload handler panicked: %v", r)
		}
	}()
	return g.handler(ctx, file)
}

func (g *Gate) transition(from, to State) {
	g.mu.Lock()
	if g.state != from {
		g.mu.Unlock()
		return
	}
	g.state = to
	observers := g.snapshotObservers()
	g.mu.Unlock()
	fire(observers, from, to)
}

// snapshotObservers must be called with mu held.
func (g *Gate) snapshotObservers() []func(from, to State) {
	if len(g.observers) == 0 {
		return nil
	}
	out := make([]func(from, to State), len(g.observers))
	copy(out, g.observers)
	return out
}

func (g *Gate) notify(err error) {
	if g.notifier != nil {
		g.notifier.Notify(UserMessage(err))
	}
}

func fire(observers []func(from, to State), from, to State) {
	for _, fn := range observers {
		fn(from, to)
	}
}
