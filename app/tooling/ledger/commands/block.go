package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/contract"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

func (c *cli) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <data>",
		Short: "Add a block with the given text.",
		Args:  usage(1, -1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, done := c.interruptible(cmd.Context())
			defer done()

			block, err := c.state.AddBlock(ctx, strings.Join(args, " "))
			return c.reportAdded(block, err)
		},
	}
}

func (c *cli) printCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print the full chain.",
		Args:  usage(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, block := range c.state.Blocks() {
				fmt.Fprintln(c.out, "---")
				printBlock(c.out, block)
			}
			return nil
		},
	}
}

func (c *cli) lastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Show the last block.",
		Args:  usage(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			printBlock(c.out, c.state.LatestBlock())
			return nil
		},
	}
}

func (c *cli) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every block links to and solves on top of its predecessor.",
		Args:  usage(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.state.ValidateChain(); err != nil {
				return fmt.Errorf("chain is invalid: %w", err)
			}

			fmt.Fprintf(c.out, "Chain is valid (%d blocks).\n", len(c.state.Blocks()))
			return nil
		},
	}
}

func (c *cli) purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete the persisted chain and reset to the genesis block.",
		Args:  usage(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.state.Purge(); err != nil {
				return fmt.Errorf("purging chain: %w", err)
			}

			fmt.Fprintln(c.out, "Chain reset to genesis block.")
			return nil
		},
	}
}

// =============================================================================

// reportAdded prints the outcome of adding a block. A block that was added
// but not saved is reported without failing the command.
func (c *cli) reportAdded(block database.Block, err error) error {
	switch {
	case err == nil:
		fmt.Fprintf(c.out, "Block added (index %d).\n", block.Index)
		return nil

	case errors.Is(err, state.ErrNotDurable):
		fmt.Fprintf(c.out, "Block added (index %d) but the chain could not be saved: %s\n", block.Index, err)
		return nil
	}

	return fmt.Errorf("failed to add block: %w", err)
}

// printBlock writes the block fields one per line.
func printBlock(w io.Writer, block database.Block) {
	fmt.Fprintf(w, "Index: %d\n", block.Index)
	fmt.Fprintf(w, "Time: %d\n", block.TimeStamp)
	fmt.Fprintf(w, "Payload: %s\n", block.Payload)
	if c, ok := contract.Parse(block.Payload); ok {
		fmt.Fprintf(w, "Contract: %s\n", contract.Describe(c))
	}
	fmt.Fprintf(w, "PrevHash: %s\n", block.PrevHash)
	fmt.Fprintf(w, "Hash: %s\n", block.Hash)
	fmt.Fprintf(w, "Nonce: %d\n", block.Nonce)
}
