package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-upb/pim"
	"github.com/arloliu/go-upb/upb"
)

// messageOptions selects a command body either as raw hex or from
// --cmd/--unit/--link flags.
type messageOptions struct {
	network int
	unit    int
	link    int
	command string
	args    string
}

func addMessageFlags(cmd *cobra.Command, mo *messageOptions) {
	flags := cmd.Flags()
	flags.IntVarP(&mo.network, "network", "n", 0, "Network ID (default from config)")
	flags.IntVar(&mo.unit, "unit", -1, "Destination unit ID")
	flags.IntVar(&mo.link, "link", -1, "Destination link ID")
	flags.StringVar(&mo.command, "cmd", "", "Command name, e.g. goto, activate, reportstate")
	flags.StringVar(&mo.args, "args", "", "Comma separated command arguments, e.g. 50,0")
}

// body returns the command body. A single positional argument is taken as
// a hex body; otherwise the message flags are used.
func (mo *messageOptions) body(cmd *cobra.Command, cfg *Config, args []string) ([]byte, error) {
	if len(args) == 1 {
		text := strings.NewReplacer(" ", "", ":", "").Replace(args[0])
		body, err := pim.DecodeHex([]byte(text))
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			return nil, errors.New("empty body")
		}

		return body, nil
	}

	if mo.command == "" {
		return nil, errors.New("either a hex body or --cmd is required")
	}

	command, err := upb.ParseCommand(mo.command)
	if err != nil {
		return nil, err
	}

	arguments, err := parseArgs(mo.args)
	if err != nil {
		return nil, err
	}

	network := int(cfg.Network)
	if cmd.Flags().Changed("network") {
		network = mo.network
	}
	if err := checkID("network", network); err != nil {
		return nil, err
	}

	var msg *upb.Message
	switch {
	case mo.link >= 0 && mo.unit >= 0:
		return nil, errors.New("only one of --unit and --link may be set")
	case mo.link >= 0:
		if err := checkID("link", mo.link); err != nil {
			return nil, err
		}
		msg = upb.NewLinkCommand(byte(network), byte(mo.link), command, arguments...)
	case mo.unit >= 0:
		if err := checkID("unit", mo.unit); err != nil {
			return nil, err
		}
		msg = upb.NewDeviceCommand(byte(network), byte(mo.unit), command, arguments...)
	default:
		return nil, errors.New("--unit or --link is required")
	}

	return msg.Encode()
}

// parseArgs parses "50,0x0A" into bytes. Decimal and 0x hex are accepted.
func parseArgs(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	out := make([]byte, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid argument %q: %w", part, err)
		}
		out = append(out, byte(v))
	}

	return out, nil
}

func checkID(name string, id int) error {
	if id < 0 || id > 255 {
		return fmt.Errorf("%s ID %d out of range [0, 255]", name, id)
	}

	return nil
}
