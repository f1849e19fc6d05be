package pim

import "github.com/arloliu/go-upb/upb"

// Listener receives what the engine does not consume itself. Both callbacks
// run inline on the engine worker and must return quickly. A callback may
// call Engine.Terminate; it returns without waiting for the worker.
type Listener interface {
	// OnUnsolicitedEvent is called for every decoded PU report.
	OnUnsolicitedEvent(msg *upb.Message)
	// OnError is called once when a transport fault stops the worker.
	OnError(err error)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Event func(msg *upb.Message)
	Error func(err error)
}

var _ Listener = ListenerFuncs{}

func (f ListenerFuncs) OnUnsolicitedEvent(msg *upb.Message) {
	if f.Event != nil {
		f.Event(msg)
	}
}

func (f ListenerFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

// NopListener discards all events and errors.
var NopListener Listener = ListenerFuncs{}
