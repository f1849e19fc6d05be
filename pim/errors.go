package pim

import "errors"

// Sentinel errors for the PIM delivery engine.
var (
	// Lifecycle errors.
	ErrEngineStarted    = errors.New("pim: engine already started")
	ErrEngineTerminated = errors.New("pim: engine terminated")
	ErrNilTransport     = errors.New("pim: transport is nil")
	ErrNilConfig        = errors.New("pim: engine config is nil")
	ErrEmptyBody        = errors.New("pim: command body is empty")

	// ErrTransportFault wraps the read or write error that stopped the worker.
	ErrTransportFault = errors.New("pim: transport fault")

	// ErrWorkerPanic is reported when the worker goroutine exits on a panic.
	ErrWorkerPanic = errors.New("pim: delivery worker panicked")

	// ErrRetriesExhausted is the reason attached to a NotAcknowledged
	// completion whose attempts all ended in NAK or ack timeout.
	ErrRetriesExhausted = errors.New("pim: retries exhausted")

	// ErrReadTimeout is returned by Transport.ReadLine when no complete line
	// arrived in time.
	ErrReadTimeout = errors.New("pim: read timeout")

	// Wire errors.
	ErrMalformedHex = errors.New("pim: malformed hex")
	ErrBadChecksum  = errors.New("pim: checksum mismatch")

	// ErrWaitTimeout is returned by Completion.WaitTimeout.
	ErrWaitTimeout = errors.New("pim: wait for completion timeout")
)
