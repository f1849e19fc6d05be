// Command upbctl sends commands to UPB devices through a PIM and monitors
// the reports they send back.
//
// Connection modes:
//
//	Serial:    upbctl --port /dev/ttyUSB0 [--baud 4800] ...
//	TCP:       upbctl --tcp 192.168.1.20:2101 ...
//	WebSocket: upbctl --url ws://bridge/pim [--username user] ...
package main

import (
	"errors"
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errNotAcknowledged) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
