package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account>",
		Short: "Show the account balance.",
		Args:  usage(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(c.out, "%s: %d\n", args[0], c.state.Balance(args[0]))
			return nil
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <account>",
		Short: "Show every contract touching the account.",
		Args:  usage(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := c.state.History(args[0])
			if len(entries) == 0 {
				fmt.Fprintf(c.out, "No history for %s.\n", args[0])
				return nil
			}

			for _, entry := range entries {
				fmt.Fprintln(c.out, entry)
			}
			return nil
		},
	}
}
