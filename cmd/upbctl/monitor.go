package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-upb/bus"
	"github.com/arloliu/go-upb/upb"
)

func newMonitorCmd(opts *rootOptions) *cobra.Command {
	var (
		unit  int
		link  int
		query bool
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print UPB reports until interrupted",
		Long: `Print the unsolicited reports received by the PIM. Reports can be
filtered to a single unit or link.

  upbctl --port /dev/ttyUSB0 monitor
  upbctl --port /dev/ttyUSB0 monitor --unit 5 --query`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			network := cfg.Network
			if unit > 255 || link > 255 {
				return errors.New("unit and link IDs must be in [0, 255]")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, info, err := openPort(ctx, cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "upbctl monitor - %s\n", info)
			fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

			router := bus.NewRouter(nil)
			show := func(msg *upb.Message) { printReport(out, msg) }

			switch {
			case unit >= 0:
				router.SubscribeDevice(bus.DeviceKey{NetworkID: network, UnitID: byte(unit)}, show)
			case link >= 0:
				router.SubscribeLink(bus.LinkKey{NetworkID: network, LinkID: byte(link)}, show)
			default:
				router.SetFallback(show)
			}

			faults := make(chan error, 1)
			router.SubscribeErrors(func(err error) {
				select {
				case faults <- err:
				default:
				}
			})

			engine, err := startEngine(ctx, p, router, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = engine.Terminate() }()

			if query && unit >= 0 {
				if _, err := engine.SubmitMessage(upb.ReportState(network, byte(unit))); err != nil {
					return err
				}
			}

			select {
			case <-ctx.Done():
				return nil
			case err := <-faults:
				return err
			}
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&unit, "unit", -1, "Only print reports from this unit")
	flags.IntVar(&link, "link", -1, "Only print messages for this link")
	flags.BoolVar(&query, "query", false, "Ask --unit for its state on start")

	return cmd
}

func printReport(w io.Writer, msg *upb.Message) {
	line := fmt.Sprintf("%s %s", time.Now().Format("15:04:05.000"), msg)
	if level, ok := msg.Level(); ok {
		line += fmt.Sprintf(" level=%d%%", level)
	}

	fmt.Fprintln(w, line)
}
