package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/contract"
	"github.com/spf13/cobra"
)

func (c *cli) contractCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "contract",
		Short: "Add a block holding a contract.",
		Long:  "Add a block holding a contract. Place -- before a negative amount so it isn't read as a flag.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "transfer <from> <to> <amount>",
			Short: "Move an amount from one account to another.",
			Args:  usage(3, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := parseAmount(args[2])
				if err != nil {
					return err
				}
				return c.addContract(cmd, contract.KindTransfer, args[0], args[1], amount, "")
			},
		},
		&cobra.Command{
			Use:   "mint <to> <amount>",
			Short: "Create an amount in an account.",
			Args:  usage(2, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				return c.addContract(cmd, contract.KindMint, "", args[0], amount, "")
			},
		},
		&cobra.Command{
			Use:   "burn <from> <amount>",
			Short: "Destroy an amount from an account.",
			Args:  usage(2, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				return c.addContract(cmd, contract.KindBurn, args[0], "", amount, "")
			},
		},
		&cobra.Command{
			Use:   "message <from> <text>",
			Short: "Record a message from an account.",
			Args:  usage(2, -1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.addContract(cmd, contract.KindMessage, args[0], "", 0, strings.Join(args[1:], " "))
			},
		},
	)

	return &cmd
}

func (c *cli) addContract(cmd *cobra.Command, kind contract.Kind, from string, to string, amount int64, text string) error {
	ct, err := contract.New(kind, from, to, amount, text)
	if err != nil {
		return err
	}

	ctx, done := c.interruptible(cmd.Context())
	defer done()

	block, err := c.state.AddContractBlock(ctx, ct)
	return c.reportAdded(block, err)
}

// parseAmount rejects amounts that are not base 10 integers before they
// reach the ledger.
func parseAmount(s string) (int64, error) {
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount must be an integer, got %q", s)
	}

	return amount, nil
}
