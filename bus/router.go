package bus

import (
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-upb/logger"
	"github.com/arloliu/go-upb/pim"
	"github.com/arloliu/go-upb/upb"
)

// DeviceKey identifies a unit on a UPB network.
type DeviceKey struct {
	NetworkID byte
	UnitID    byte
}

// LinkKey identifies a link (scene) on a UPB network.
type LinkKey struct {
	NetworkID byte
	LinkID    byte
}

// Handler receives routed reports. Handlers run on the engine worker and
// must return quickly.
type Handler func(msg *upb.Message)

// ErrorHandler receives engine faults.
type ErrorHandler func(err error)

type subscription struct {
	id      uint64
	handler Handler
}

// Router dispatches unsolicited reports to per-device and per-link
// subscribers. It is safe for concurrent use.
type Router struct {
	devices  *xsync.MapOf[DeviceKey, []subscription]
	links    *xsync.MapOf[LinkKey, []subscription]
	errs     *xsync.MapOf[uint64, ErrorHandler]
	levels   *xsync.MapOf[DeviceKey, byte]
	fallback atomic.Pointer[Handler]
	nextID   atomic.Uint64
	logger   logger.Logger
}

var _ pim.Listener = (*Router)(nil)

// NewRouter creates an empty router. A nil logger uses the default logger.
func NewRouter(l logger.Logger) *Router {
	if l == nil {
		l = logger.GetLogger()
	}

	return &Router{
		devices: xsync.NewMapOf[DeviceKey, []subscription](),
		links:   xsync.NewMapOf[LinkKey, []subscription](),
		errs:    xsync.NewMapOf[uint64, ErrorHandler](),
		levels:  xsync.NewMapOf[DeviceKey, byte](),
		logger:  l,
	}
}

// SubscribeDevice registers h for reports sent by the unit key. The returned
// function removes the subscription; calling it more than once is a no-op.
func (r *Router) SubscribeDevice(key DeviceKey, h Handler) (unsubscribe func()) {
	return subscribe(r.devices, key, r.nextID.Add(1), h)
}

// SubscribeLink registers h for link messages addressed to key.
func (r *Router) SubscribeLink(key LinkKey, h Handler) (unsubscribe func()) {
	return subscribe(r.links, key, r.nextID.Add(1), h)
}

// SubscribeErrors registers h for engine faults.
func (r *Router) SubscribeErrors(h ErrorHandler) (unsubscribe func()) {
	id := r.nextID.Add(1)
	r.errs.Store(id, h)

	var once sync.Once

	return func() {
		once.Do(func() { r.errs.Delete(id) })
	}
}

// SetFallback sets the handler for reports no subscriber matched. A nil h
// removes it.
func (r *Router) SetFallback(h Handler) {
	if h == nil {
		r.fallback.Store(nil)
		return
	}
	r.fallback.Store(&h)
}

// Level returns the last level reported by the unit key.
func (r *Router) Level(key DeviceKey) (byte, bool) {
	return r.levels.Load(key)
}

// SubscriberCount returns the number of device and link subscriptions.
func (r *Router) SubscriberCount() int {
	count := 0
	r.devices.Range(func(_ DeviceKey, subs []subscription) bool {
		count += len(subs)
		return true
	})
	r.links.Range(func(_ LinkKey, subs []subscription) bool {
		count += len(subs)
		return true
	})

	return count
}

// OnUnsolicitedEvent implements pim.Listener.
func (r *Router) OnUnsolicitedEvent(msg *upb.Message) {
	if msg == nil {
		return
	}

	var subs []subscription
	if msg.IsLink() {
		subs, _ = r.links.Load(LinkKey{NetworkID: msg.NetworkID, LinkID: msg.DestinationID})
	} else {
		key := DeviceKey{NetworkID: msg.NetworkID, UnitID: msg.SourceID}
		if msg.Command == upb.CmdDeviceStateReport {
			if level, ok := msg.Level(); ok {
				r.levels.Store(key, level)
			}
		}
		subs, _ = r.devices.Load(key)
	}

	if len(subs) == 0 {
		if fb := r.fallback.Load(); fb != nil {
			r.call(*fb, msg)
		} else {
			r.logger.Debug("bus: no subscriber for report", "message", msg.String())
		}

		return
	}

	for _, sub := range subs {
		r.call(sub.handler, msg)
	}
}

// OnError implements pim.Listener.
func (r *Router) OnError(err error) {
	r.logger.Error("bus: engine error", "error", err)

	r.errs.Range(func(_ uint64, h ErrorHandler) bool {
		func() {
			defer r.recoverHandler("error")
			h(err)
		}()

		return true
	})
}

func (r *Router) call(h Handler, msg *upb.Message) {
	defer r.recoverHandler(msg.Command.String())
	h(msg)
}

func (r *Router) recoverHandler(what string) {
	if rec := recover(); rec != nil {
		r.logger.Error("bus: panic in handler", "handler", what, "panic", rec)
	}
}

// subscribe appends a subscription with copy-on-write, so dispatch can use
// the loaded slice without locking.
func subscribe[K comparable](m *xsync.MapOf[K, []subscription], key K, id uint64, h Handler) func() {
	m.Compute(key, func(old []subscription, _ bool) ([]subscription, bool) {
		subs := make([]subscription, 0, len(old)+1)
		subs = append(subs, old...)

		return append(subs, subscription{id: id, handler: h}), false
	})

	var once sync.Once

	return func() {
		once.Do(func() {
			m.Compute(key, func(old []subscription, loaded bool) ([]subscription, bool) {
				if !loaded {
					return nil, true
				}

				subs := make([]subscription, 0, len(old))
				for _, sub := range old {
					if sub.id != id {
						subs = append(subs, sub)
					}
				}

				return subs, len(subs) == 0
			})
		})
	}
}
