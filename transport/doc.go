// Package transport opens byte streams to a PIM.
//
// Every port type satisfies pim.Port and io.Closer, so it can be wrapped with
// pim.NewLineTransport and handed to a delivery engine:
//
//	port, err := transport.OpenSerial("/dev/ttyUSB0", transport.DefaultBaudRate)
//	...
//	defer port.Close()
//	engine, err := pim.NewEngine(ctx, pim.NewLineTransport(port), listener, cfg)
//
// Serial ports talk to a PIM directly. TCP and WebSocket ports reach a PIM
// behind a serial-to-network bridge.
package transport
