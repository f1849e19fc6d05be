package pim

import (
	"context"
	"sync"
	"time"

	"github.com/arloliu/go-upb/internal/pool"
)

// Outcome is the result of a submitted command.
type Outcome int

const (
	// OutcomePending means the command has not been resolved yet.
	OutcomePending Outcome = iota
	// Acknowledged means the PIM answered PK.
	Acknowledged
	// NotAcknowledged means every attempt ended in PN or ack timeout, or the
	// engine stopped before the command was acknowledged.
	NotAcknowledged
)

func (o Outcome) String() string {
	switch o {
	case Acknowledged:
		return "Acknowledged"
	case NotAcknowledged:
		return "NotAcknowledged"
	default:
		return "Pending"
	}
}

// Completion is a one-shot handle for the outcome of a submitted command.
//
// Only the engine resolves a Completion, and it does so exactly once.
type Completion struct {
	done chan struct{}
	once sync.Once

	// written before done is closed, read only after
	outcome  Outcome
	attempts int
	reason   error
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// resolve settles the completion. It returns false if it was already settled.
func (c *Completion) resolve(outcome Outcome, attempts int, reason error) bool {
	resolved := false
	c.once.Do(func() {
		c.outcome = outcome
		c.attempts = attempts
		c.reason = reason
		close(c.done)
		resolved = true
	})

	return resolved
}

// Done returns a channel that is closed once the outcome is known.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// IsDone reports whether the completion has been resolved.
func (c *Completion) IsDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Outcome returns the outcome, or OutcomePending if not yet resolved.
func (c *Completion) Outcome() Outcome {
	if !c.IsDone() {
		return OutcomePending
	}

	return c.outcome
}

// Attempts returns how many times the frame was transmitted. It is zero
// until the completion is resolved, and stays zero for commands that never
// reached the wire.
func (c *Completion) Attempts() int {
	if !c.IsDone() {
		return 0
	}

	return c.attempts
}

// Reason explains a NotAcknowledged outcome: ErrRetriesExhausted,
// ErrEngineTerminated, or an error wrapping ErrTransportFault. It is nil for
// acknowledged or pending commands.
func (c *Completion) Reason() error {
	if !c.IsDone() {
		return nil
	}

	return c.reason
}

// Wait blocks until the completion is resolved or ctx is done.
func (c *Completion) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-c.done:
		return c.outcome, nil
	case <-ctx.Done():
		return OutcomePending, ctx.Err()
	}
}

// WaitTimeout blocks until the completion is resolved or d elapses, in which
// case ErrWaitTimeout is returned.
func (c *Completion) WaitTimeout(d time.Duration) (Outcome, error) {
	timer := pool.GetTimer(d)
	defer pool.PutTimer(timer)

	select {
	case <-c.done:
		return c.outcome, nil
	case <-timer.C:
		return OutcomePending, ErrWaitTimeout
	}
}
