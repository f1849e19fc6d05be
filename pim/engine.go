package pim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-upb/internal/queue"
	"github.com/arloliu/go-upb/internal/task"
	"github.com/arloliu/go-upb/logger"
	"github.com/arloliu/go-upb/upb"
)

type pendingCommand struct {
	frame    Frame
	attempts int
	comp     *Completion
}

// Engine delivers command frames to a PIM one at a time and resolves each
// submission with the PIM's verdict.
//
// A single worker goroutine owns the transport: it writes frames, reads
// lines, runs the ack timer, and invokes the listener. Submit, Terminate and
// the accessors may be called from any goroutine, including from inside a
// listener callback.
type Engine struct {
	cfg       *EngineConfig
	transport Transport
	listener  Listener
	logger    logger.Logger
	metrics   EngineMetrics
	taskMgr   *task.Manager

	backlog *queue.LockFreeQueue[*pendingCommand]

	// submitMu orders Submit against lifecycle transitions, so nothing is
	// queued after the backlog has been drained.
	submitMu  sync.RWMutex
	lifecycle atomicLifecycle
	faultErr  error

	state         atomic.Uint32
	terminateOnce sync.Once
	finishOnce    sync.Once
	inCallback    atomic.Bool

	// owned by the worker
	current    *pendingCommand
	deadline   time.Time
	enableSent bool
}

// NewEngine creates a delivery engine on top of an open transport.
//
// The engine never closes t. Cancelling ctx terminates the engine like
// Terminate does. A nil listener discards events and errors.
func NewEngine(ctx context.Context, t Transport, l Listener, cfg *EngineConfig) (*Engine, error) {
	if t == nil {
		return nil, ErrNilTransport
	}
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if l == nil {
		l = NopListener
	}

	e := &Engine{
		cfg:       cfg,
		transport: t,
		listener:  l,
		logger:    cfg.GetLogger(),
		taskMgr:   task.NewManager(ctx, cfg.GetLogger()),
		backlog:   queue.NewLockFreeQueue[*pendingCommand](),
	}
	context.AfterFunc(e.taskMgr.Context(), e.onContextDone)

	return e, nil
}

// Start starts the delivery worker.
func (e *Engine) Start() error {
	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	if !e.lifecycle.ToRunning() {
		switch e.lifecycle.Get() {
		case TerminatingState, TerminatedState:
			return ErrEngineTerminated
		default:
			return ErrEngineStarted
		}
	}

	e.logger.Debug("pim: start delivery engine",
		"ackTimeout", e.cfg.AckTimeout(),
		"maxAttempts", e.cfg.MaxAttempts(),
		"queueLength", e.backlog.Length(),
	)

	if err := e.taskMgr.Start("deliveryLoop", e.loopIteration, e.onWorkerExit); err != nil {
		e.lifecycle.Set(TerminatedState)
		e.resolveOutstanding(ErrEngineTerminated)

		return fmt.Errorf("pim: start delivery worker: %w", err)
	}

	return nil
}

// Submit queues a command body for delivery and returns its completion
// handle. It never blocks. body is copied.
//
// Commands may be submitted before Start; they wait in the backlog.
func (e *Engine) Submit(body []byte) (*Completion, error) {
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}

	cmd := &pendingCommand{
		frame: EncodeCommandFrame(body),
		comp:  newCompletion(),
	}

	e.submitMu.RLock()
	defer e.submitMu.RUnlock()

	if !e.lifecycle.AcceptsSubmit() {
		if e.lifecycle.Get() == FaultedState && e.faultErr != nil {
			return nil, e.faultErr
		}

		return nil, ErrEngineTerminated
	}
	if e.taskMgr.Context().Err() != nil {
		return nil, ErrEngineTerminated
	}

	e.backlog.Enqueue(cmd)
	e.metrics.incQueueLengthGauge()

	return cmd.comp, nil
}

// SubmitMessage encodes msg and submits it.
func (e *Engine) SubmitMessage(msg *upb.Message) (*Completion, error) {
	body, err := msg.Encode()
	if err != nil {
		return nil, err
	}

	return e.Submit(body)
}

// Send submits body and waits for its outcome or for ctx to be done.
func (e *Engine) Send(ctx context.Context, body []byte) (Outcome, error) {
	comp, err := e.Submit(body)
	if err != nil {
		return OutcomePending, err
	}

	return comp.Wait(ctx)
}

// Terminate stops the worker and waits for it to exit. No frame is written
// after Terminate returns, and every outstanding completion is resolved
// NotAcknowledged with ErrEngineTerminated. It is safe to call more than once.
//
// Called from a listener callback, Terminate stops the worker without waiting
// for it; outstanding completions resolve once the callback returns.
func (e *Engine) Terminate() error {
	e.terminateOnce.Do(func() {
		e.submitMu.Lock()
		prev := e.lifecycle.Get()
		e.lifecycle.Set(TerminatingState)
		e.taskMgr.Stop()
		e.submitMu.Unlock()

		e.logger.Debug("pim: terminate delivery engine", "lifecycle", prev.String())
	})

	if e.inCallback.Load() {
		return nil
	}

	e.finishOnce.Do(func() {
		e.taskMgr.Wait()
		e.resolveOutstanding(ErrEngineTerminated)
		e.lifecycle.Set(TerminatedState)

		e.logger.Debug("pim: delivery engine terminated")
	})

	return nil
}

// State returns the delivery state.
func (e *Engine) State() DeliveryState {
	return DeliveryState(e.state.Load())
}

// Lifecycle returns the lifecycle state.
func (e *Engine) Lifecycle() LifecycleState {
	return e.lifecycle.Get()
}

// QueueLength returns the number of commands waiting behind the one in flight.
func (e *Engine) QueueLength() int {
	return e.backlog.Length()
}

// GetMetrics returns the engine metrics.
func (e *Engine) GetMetrics() *EngineMetrics {
	return &e.metrics
}

// GetLogger returns the logger associated with the engine.
func (e *Engine) GetLogger() logger.Logger {
	return e.logger
}

func (e *Engine) setState(s DeliveryState) {
	e.state.Store(uint32(s))
}

// loopIteration is one step of the delivery state machine.
func (e *Engine) loopIteration() bool {
	if e.current != nil {
		return e.awaitResponse()
	}

	cmd, ok := e.backlog.Dequeue()
	if !ok {
		return e.pollIdle()
	}
	e.metrics.decQueueLengthGauge()
	e.current = cmd

	if err := e.sendEnableFrame(); err != nil {
		return e.fault(err)
	}

	return e.transmit()
}

// sendEnableFrame writes the enable frame the first time it is called.
func (e *Engine) sendEnableFrame() error {
	if e.enableSent {
		return nil
	}
	e.enableSent = true

	frame := e.cfg.EnableFrame()
	if frame.IsZero() {
		return nil
	}

	e.logger.Debug("pim: send enable frame", "frame", frame.String())

	if _, err := e.transport.Write(frame.Bytes()); err != nil {
		return err
	}
	e.metrics.incEnableSendCount()

	return nil
}

// transmit writes the current frame and arms the ack deadline.
func (e *Engine) transmit() bool {
	cmd := e.current
	cmd.attempts++
	if cmd.attempts > 1 {
		e.metrics.incRetryCount()
	}

	e.logger.Debug("pim: send frame", "frame", cmd.frame.String(), "attempt", cmd.attempts)

	if _, err := e.transport.Write(cmd.frame.Bytes()); err != nil {
		return e.fault(err)
	}
	e.metrics.incFrameSendCount()

	e.deadline = time.Now().Add(e.cfg.AckTimeout())
	e.setState(AwaitingResponse)

	return true
}

func (e *Engine) awaitResponse() bool {
	remaining := time.Until(e.deadline)
	if remaining <= 0 {
		e.logger.Debug("pim: ack timeout", "frame", e.current.frame.String(), "attempt", e.current.attempts)
		return e.handleNegative()
	}

	return e.readLine(min(remaining, e.cfg.PollInterval()))
}

func (e *Engine) pollIdle() bool {
	return e.readLine(e.cfg.PollInterval())
}

func (e *Engine) readLine(timeout time.Duration) bool {
	line, err := e.transport.ReadLine(timeout)
	if err != nil {
		if errors.Is(err, ErrReadTimeout) {
			return true
		}

		return e.fault(err)
	}

	return e.handleLine(line)
}

func (e *Engine) handleLine(line []byte) bool {
	in := ClassifyLine(line, e.cfg.Decoder())

	switch in.Kind {
	case LineAck:
		if e.current == nil {
			e.logger.Debug("pim: ignore ack while idle")
			return true
		}
		e.complete(Acknowledged, nil)

	case LineNak:
		if e.current == nil {
			e.logger.Debug("pim: ignore nak while idle")
			return true
		}
		e.logger.Debug("pim: nak received", "frame", e.current.frame.String(), "attempt", e.current.attempts)

		return e.handleNegative()

	case LineUnsolicited:
		e.metrics.incUnsolicitedCount()
		e.notifyEvent(in.Event)

	default:
		e.metrics.incUnrecognizedCount()
		e.logger.Debug("pim: ignore unrecognized line", "line", string(line), "error", in.Err)
	}

	return true
}

// handleNegative applies a NAK or an ack timeout to the current command.
func (e *Engine) handleNegative() bool {
	cmd := e.current
	if cmd.attempts < e.cfg.MaxAttempts() {
		return e.transmit()
	}

	e.logger.Warn("pim: command not acknowledged", "frame", cmd.frame.String(), "attempts", cmd.attempts)
	e.complete(NotAcknowledged, ErrRetriesExhausted)

	return true
}

// complete resolves the current command and returns to Idle.
func (e *Engine) complete(outcome Outcome, reason error) {
	cmd := e.current
	e.current = nil
	e.setState(Idle)

	if !cmd.comp.resolve(outcome, cmd.attempts, reason) {
		return
	}

	if outcome == Acknowledged {
		e.metrics.incAckCount()
	} else {
		e.metrics.incNotAckCount()
	}
}

// fault stops the worker on a transport error. It always returns false.
func (e *Engine) fault(err error) bool {
	faultErr := fmt.Errorf("%w: %w", ErrTransportFault, err)

	e.submitMu.Lock()
	faulted := e.lifecycle.ToFaulted()
	if faulted {
		e.faultErr = faultErr
	}
	e.submitMu.Unlock()

	if !faulted {
		e.logger.Debug("pim: transport error while terminating", "error", err)
		return false
	}

	e.logger.Error("pim: transport fault", "error", err, "state", e.State().String())
	e.notifyError(faultErr)

	return false
}

// onWorkerExit runs on the worker goroutine after its loop has returned.
func (e *Engine) onWorkerExit() {
	reason := ErrEngineTerminated
	panicked := false

	e.submitMu.Lock()
	switch e.lifecycle.Get() {
	case FaultedState:
		reason = e.faultErr
	case TerminatingState:
		if e.faultErr != nil {
			reason = e.faultErr
		}
	case RunningState:
		if e.taskMgr.Context().Err() != nil {
			e.lifecycle.Set(TerminatedState)
		} else {
			// the loop only returns without a fault when it panics
			panicked = true
			reason = ErrWorkerPanic
			e.faultErr = ErrWorkerPanic
			e.lifecycle.Set(FaultedState)
		}
	}
	e.submitMu.Unlock()

	if panicked {
		e.notifyError(ErrWorkerPanic)
	}

	e.resolveOutstanding(reason)
	e.lifecycle.ToTerminated()
}

// onContextDone terminates an engine whose context ends before Start.
func (e *Engine) onContextDone() {
	e.submitMu.Lock()
	if e.lifecycle.Get() != NewState {
		e.submitMu.Unlock()
		return
	}
	e.lifecycle.Set(TerminatedState)
	e.submitMu.Unlock()

	e.logger.Debug("pim: context done before start", "queueLength", e.backlog.Length())
	e.resolveOutstanding(ErrEngineTerminated)
}

// resolveOutstanding resolves the current command and drains the backlog.
// It must not run concurrently with a live worker.
func (e *Engine) resolveOutstanding(reason error) {
	if e.current != nil {
		e.complete(NotAcknowledged, reason)
	}

	for {
		cmd, ok := e.backlog.Dequeue()
		if !ok {
			return
		}
		e.metrics.decQueueLengthGauge()

		if cmd.comp.resolve(NotAcknowledged, cmd.attempts, reason) {
			e.metrics.incNotAckCount()
		}
	}
}

func (e *Engine) notifyEvent(msg *upb.Message) {
	e.inCallback.Store(true)
	defer func() {
		e.inCallback.Store(false)
		if r := recover(); r != nil {
			e.logger.Error("pim: panic in unsolicited event listener", "panic", r)
		}
	}()

	e.listener.OnUnsolicitedEvent(msg)
}

func (e *Engine) notifyError(err error) {
	e.inCallback.Store(true)
	defer func() {
		e.inCallback.Store(false)
		if r := recover(); r != nil {
			e.logger.Error("pim: panic in error listener", "panic", r)
		}
	}()

	e.listener.OnError(err)
}
