package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-upb/logger"
	"github.com/arloliu/go-upb/pim"
)

// errNotAcknowledged makes upbctl exit with status 1 without printing an
// error; the outcome has already been printed.
var errNotAcknowledged = errors.New("command not acknowledged")

func newSendCmd(opts *rootOptions) *cobra.Command {
	mo := &messageOptions{}

	cmd := &cobra.Command{
		Use:   "send [hex-body]",
		Short: "Send one command and wait for the PIM's verdict",
		Long: `Send a command through the PIM and print whether it was acknowledged.
The exit status is 1 when the command is not acknowledged.

  upbctl --port /dev/ttyUSB0 send --network 2 --unit 5 --cmd goto --args 50
  upbctl --tcp 10.0.0.20:2101 send --link 9 --cmd activate
  upbctl --port /dev/ttyUSB0 send 08100205FF220A`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := mo.body(cmd, opts.cfg, args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, info, err := openPort(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			logger.Debug("connected", "connection", info)

			engine, err := startEngine(ctx, p, nil, opts.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = engine.Terminate() }()

			comp, err := engine.Submit(body)
			if err != nil {
				return err
			}

			outcome, err := comp.Wait(ctx)
			if err != nil {
				return fmt.Errorf("wait for outcome: %w", err)
			}

			out := cmd.OutOrStdout()
			frame := pim.EncodeCommandFrame(body)
			if outcome == pim.Acknowledged {
				fmt.Fprintf(out, "%s: %s (attempts=%d)\n", frame, outcome, comp.Attempts())
				return nil
			}

			fmt.Fprintf(out, "%s: %s (attempts=%d, reason=%v)\n", frame, outcome, comp.Attempts(), comp.Reason())

			return errNotAcknowledged
		},
	}
	addMessageFlags(cmd, mo)

	return cmd
}
