package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-upb/pim"
)

func newFrameCmd(opts *rootOptions) *cobra.Command {
	mo := &messageOptions{}

	cmd := &cobra.Command{
		Use:   "frame [hex-body]",
		Short: "Print the PIM transmit frame for a command",
		Long: `Encode a command body into the frame written to the PIM, without
opening a connection.

  upbctl frame 08100205FF220A
  upbctl frame --network 2 --unit 5 --cmd goto --args 10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := mo.body(cmd, opts.cfg, args)
			if err != nil {
				return err
			}

			frame := pim.EncodeCommandFrame(body)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "body:     % X\n", body)
			fmt.Fprintf(out, "checksum: %02X\n", pim.Checksum(body))
			fmt.Fprintf(out, "frame:    %s\n", frame)

			return nil
		},
	}
	addMessageFlags(cmd, mo)

	return cmd
}
