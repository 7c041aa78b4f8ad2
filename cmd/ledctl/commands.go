package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sweeney/ledctl/internal/logic"
)

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "Print the command table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCommands(cmd.OutOrStdout())
		},
	}
}

func printCommands(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMAND\tEFFECT\tREPLY")
	for _, c := range logic.Commands() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Token, describe(c.Effect), c.Reply)
	}
	fmt.Fprintf(tw, "%s\t%s\t%s\n", "(other)", "none", logic.UnknownPrefix+"<text>")
	return tw.Flush()
}

func describe(e logic.Effect) string {
	switch e.Kind {
	case logic.EffectSetChannel:
		return fmt.Sprintf("%s=%s", e.Channel, e.State)
	case logic.EffectSetAll:
		return fmt.Sprintf("all=%s", e.State)
	}
	return "none"
}
