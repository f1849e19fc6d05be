// Package pim implements reliable command delivery to a UPB Powerline
// Interface Module (PIM) over a half-duplex, line-oriented serial link.
//
// # Wire Format
//
// Every command is sent as an ASCII frame:
//
//	0x14 ++ HEX(body) ++ HEX(checksum) ++ CR
//
// where checksum is the two's-complement byte that makes the sum of body and
// checksum zero modulo 256. Before the first command of an engine lifetime a
// one-time "enable" frame (0x17 ... LF) switches the PIM into message mode;
// it is never retried or acknowledged.
//
// The PIM answers with CR-terminated lines:
//
//   - PK: the last frame was acknowledged
//   - PN: the last frame was not acknowledged
//   - PU<hex>: an unsolicited message report from the bus
//
// Anything else (including the PA/PB/PE status lines and line noise) is
// ignored.
//
// # Delivery Engine
//
// [Engine] owns a FIFO backlog and a single worker goroutine that is the only
// reader and writer of the [Transport]. Callers [Engine.Submit] opaque command
// bodies and receive a [Completion] that is resolved exactly once with
// [Acknowledged] or [NotAcknowledged]:
//
//	eng, _ := pim.NewEngine(ctx, pim.NewLineTransport(port), listener, cfg)
//	_ = eng.Start()
//	defer eng.Terminate()
//
//	c, err := eng.Submit(body)
//	outcome, err := c.Wait(ctx)
//
// The worker runs a two-state machine (Idle, AwaitingResponse). A NAK or an
// expired ack timeout retransmits the identical frame until the configured
// attempt limit is reached. Unsolicited reports are decoded and handed to the
// [Listener] without disturbing the command in flight.
//
// # Faults
//
// A transport read or write error is fatal: it is reported once through
// [Listener.OnError] wrapped in [ErrTransportFault], every pending command
// resolves NotAcknowledged, and further submissions are rejected.
package pim
