// Package task runs long-lived worker loops with cancellation and panic
// recovery.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-upb/logger"
)

// ErrStopped is returned by Start once the manager has been stopped.
var ErrStopped = errors.New("task: manager stopped")

// startTimeout bounds how long Start waits for the goroutine to come up.
const startTimeout = 5 * time.Second

// Func is one iteration of a worker loop. It returns true to keep running or
// false to stop the worker.
type Func func() bool

// ExitFunc is called exactly once when a worker exits, whether it returned
// false, was cancelled, or panicked.
type ExitFunc func()

// Manager manages the lifecycle of worker goroutines.
//
// Every worker started by the manager observes the manager's context: Stop
// cancels it and Wait blocks until all workers have returned.
//
//	mgr := task.NewManager(ctx, logger)
//	_ = mgr.Start("deliveryLoop", loopIteration, onExit)
//	...
//	mgr.Stop()
//	mgr.Wait()
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
	count  atomic.Int32
}

// NewManager creates a Manager whose workers are cancelled when ctx is done.
func NewManager(ctx context.Context, l logger.Logger) *Manager {
	mgr := &Manager{logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// Context returns the context observed by the managed workers.
func (mgr *Manager) Context() context.Context {
	return mgr.ctx
}

// Start runs fn in a loop on a new goroutine until fn returns false, the
// manager is stopped, or fn panics. onExit may be nil.
func (mgr *Manager) Start(name string, fn Func, onExit ExitFunc) error {
	select {
	case <-mgr.ctx.Done():
		return fmt.Errorf("start %s: %w", name, ErrStopped)
	default:
	}

	mgr.logger.Debug("start task", "name", name)

	started := make(chan struct{})
	mgr.wg.Add(1)

	go func() {
		defer mgr.wg.Done()

		mgr.count.Add(1)
		close(started)

		defer func() {
			mgr.count.Add(-1)
			mgr.logger.Debug("task terminated", "name", name, "task_count", mgr.TaskCount())
		}()

		if onExit != nil {
			defer mgr.callWithRecover(name, onExit)
		}

		mgr.runLoop(name, fn)
	}()

	select {
	case <-started:
		return nil
	case <-time.After(startTimeout):
		return fmt.Errorf("timeout waiting for %s to start", name)
	}
}

// Stop signals all workers to stop. It does not wait for them.
func (mgr *Manager) Stop() {
	mgr.cancel()
}

// Wait blocks until all workers have returned.
func (mgr *Manager) Wait() {
	mgr.wg.Wait()
}

// TaskCount returns the number of running workers.
func (mgr *Manager) TaskCount() int {
	return int(mgr.count.Load())
}

func (mgr *Manager) runLoop(name string, fn Func) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task loop", "name", name, "panic", r)
		}
	}()

	for {
		select {
		case <-mgr.ctx.Done():
			return
		default:
			if !fn() {
				return
			}
		}
	}
}

func (mgr *Manager) callWithRecover(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task exit handler", "name", name, "panic", r)
		}
	}()

	fn()
}
