package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/sweeney/ledctl/internal/logic"
)

func newSignalCmd() *cobra.Command {
	var (
		flags    clientFlags
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "signal <mode>",
		Short: "Show a named light pattern on a controller",
		Long: `Show a named light pattern on a controller.

Modes: ` + strings.Join(logic.ModeNames(), ", ") + `.
Blinking modes run until interrupted or until --duration has passed,
then leave the blinking light off.`,
		Example: `  ledctl signal ready
  ledctl signal move --duration 10s`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: logic.ModeNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := logic.LookupMode(args[0])
			if !ok {
				return fmt.Errorf("unknown mode %q (want one of %s)", args[0], strings.Join(logic.ModeNames(), ", "))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			link, err := flags.open(ctx)
			if err != nil {
				return err
			}
			defer link.Close()

			return runSignal(ctx, link, mode, flags.timeout, cmd.OutOrStdout())
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop a blinking mode after this long (0 runs until interrupted)")
	return cmd
}

// runSignal sends the mode's commands and then blinks, if the mode blinks,
// until ctx is done.
func runSignal(ctx context.Context, link lineLink, mode logic.Mode, timeout time.Duration, out io.Writer) error {
	if err := sendCommands(ctx, link, mode.Commands, timeout, out); err != nil {
		return err
	}
	if mode.Blink == nil {
		return nil
	}
	return blink(ctx, link, *mode.Blink, timeout, out)
}

// blink alternates b.On and b.Off until ctx is done, then sends b.Off once
// more and prints its reply.
func blink(ctx context.Context, link lineLink, b logic.Blink, timeout time.Duration, out io.Writer) error {
	steps := []struct {
		cmd string
		d   time.Duration
	}{{b.On, b.OnFor}, {b.Off, b.OffFor}}

blinking:
	for {
		for _, s := range steps {
			if err := sendCommands(ctx, link, []string{s.cmd}, timeout, io.Discard); err != nil {
				if ctx.Err() != nil {
					break blinking
				}
				return err
			}
			if !sleepCtx(ctx, s.d) {
				break blinking
			}
		}
	}

	return sendExpect(link, b.Off, timeout, out)
}

// sendExpect writes cmd and waits for its own reply, skipping replies to
// commands that were cut short.
func sendExpect(link lineLink, cmd string, timeout time.Duration, out io.Writer) error {
	_, want := logic.Lookup(cmd)
	if err := link.WriteLine(cmd); err != nil {
		return fmt.Errorf("send %q: %w", cmd, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for {
		reply, err := readReply(ctx, link, timeout)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("reply to %q: no reply within %v", cmd, timeout)
			}
			return fmt.Errorf("reply to %q: %w", cmd, err)
		}
		if reply == want {
			fmt.Fprintln(out, reply)
			return nil
		}
	}
}
