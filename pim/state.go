package pim

import "sync/atomic"

// DeliveryState is the state of the delivery state machine.
type DeliveryState uint32

const (
	// Idle means no command is in flight.
	Idle DeliveryState = iota
	// AwaitingResponse means a frame was written and the engine waits for PK or PN.
	AwaitingResponse
)

func (s DeliveryState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AwaitingResponse:
		return "AwaitingResponse"
	default:
		return "Unknown"
	}
}

// LifecycleState is the lifecycle of an engine.
type LifecycleState uint32

const (
	// NewState is an engine that has not been started. It accepts submissions.
	NewState LifecycleState = iota
	// RunningState is an engine whose worker is running.
	RunningState
	// TerminatingState is an engine whose worker is being stopped.
	TerminatingState
	// TerminatedState is an engine that was terminated.
	TerminatedState
	// FaultedState is an engine whose worker stopped on a transport fault.
	FaultedState
)

func (s LifecycleState) String() string {
	switch s {
	case NewState:
		return "New"
	case RunningState:
		return "Running"
	case TerminatingState:
		return "Terminating"
	case TerminatedState:
		return "Terminated"
	case FaultedState:
		return "Faulted"
	default:
		return "Unknown"
	}
}

type atomicLifecycle struct {
	state atomic.Uint32
}

func (st *atomicLifecycle) Get() LifecycleState {
	return LifecycleState(st.state.Load())
}

func (st *atomicLifecycle) Set(state LifecycleState) {
	st.state.Store(uint32(state))
}

// AcceptsSubmit reports whether new commands may be queued.
func (st *atomicLifecycle) AcceptsSubmit() bool {
	s := st.Get()
	return s == NewState || s == RunningState
}

func (st *atomicLifecycle) ToRunning() bool {
	return st.state.CompareAndSwap(uint32(NewState), uint32(RunningState))
}

func (st *atomicLifecycle) ToTerminated() bool {
	return st.state.CompareAndSwap(uint32(TerminatingState), uint32(TerminatedState))
}

func (st *atomicLifecycle) ToFaulted() bool {
	return st.state.CompareAndSwap(uint32(RunningState), uint32(FaultedState))
}
