package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/sweeney/ledctl/internal/logic"
)

// lineLink is the client side of the serial link.
type lineLink interface {
	WriteLine(s string) error
	ReadLine(ctx context.Context) (string, error)
}

func newSendCmd() *cobra.Command {
	var flags clientFlags

	cmd := &cobra.Command{
		Use:   "send <command>...",
		Short: "Send commands to a controller and print each reply",
		Example: `  ledctl send --device /dev/ttyUSB0 red_on
  ledctl send all_on all_off`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer link.Close()

			return sendCommands(cmd.Context(), link, args, flags.timeout, cmd.OutOrStdout())
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

// sendCommands writes each command and prints the first reply line that is
// not part of the startup banner. Controllers that reset when the port opens
// print the banner first.
func sendCommands(ctx context.Context, link lineLink, cmds []string, timeout time.Duration, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, c := range cmds {
		if err := link.WriteLine(c); err != nil {
			return fmt.Errorf("send %q: %w", c, err)
		}
		reply, err := readReply(ctx, link, timeout)
		if err != nil {
			return fmt.Errorf("reply to %q: %w", c, err)
		}
		fmt.Fprintln(out, reply)
	}
	return nil
}

func readReply(ctx context.Context, link lineLink, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		line, err := link.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return "", fmt.Errorf("no reply within %v", timeout)
			}
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" || isBanner(line) {
			continue
		}
		return line, nil
	}
}

func isBanner(line string) bool {
	if strings.HasPrefix(line, logic.UnknownPrefix) {
		return false
	}
	return strings.HasSuffix(line, logic.ReadyBanner) || strings.HasPrefix(line, "Commands: ")
}
