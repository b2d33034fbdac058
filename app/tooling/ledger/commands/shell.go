package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const shellHelp = `Commands:
  add <text>                               Add a block with given text
  contract transfer <from> <to> <amount>   Add a transfer contract block
  contract mint <to> <amount>              Add a mint contract block
  contract burn <from> <amount>            Add a burn contract block
  contract message <from> <text>           Add a message contract block
  balance <account>                        Show account balance
  history <account>                        Show the contracts touching an account
  print                                    Print the full chain
  last                                     Show the last block
  validate                                 Check the chain
  purge                                    Delete the persisted chain and reset
  shutdown                                 Save and quit
  help                                     Show this message
  exit                                     Save and quit`

func (c *cli) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively against one open ledger.",
		Args:  usage(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(c.out, "Ledger with contracts and persistent storage. Type 'help' for commands.")

			quit := make(chan struct{})
			defer close(quit)
			lines, readErr := c.readLines(quit)

			for {
				fmt.Fprint(c.out, "> ")

				var line string
				select {
				case <-cmd.Context().Done():
					fmt.Fprintln(c.out)
					return c.saveAndExit()

				case <-c.interrupts:
					fmt.Fprintln(c.out)
					return c.saveAndExit()

				case l, ok := <-lines:
					if !ok {
						if err := readErr(); err != nil {
							return fmt.Errorf("reading input: %w", err)
						}

						// End of input saves like shutdown.
						fmt.Fprintln(c.out)
						return c.state.Save()
					}
					line = l
				}

				fields := strings.Fields(line)
				if len(fields) == 0 {
					continue
				}
				fields[0] = strings.ToLower(fields[0])

				switch fields[0] {
				case "shutdown", "exit", "quit":
					return c.saveAndExit()

				case "help":
					fmt.Fprintln(c.out, shellHelp)
					continue
				}

				c.dispatch(cmd, fields)
			}
		},
	}
}

// readLines delivers the input one line at a time so the prompt can also
// wait on interrupts. The channel is closed at the end of input, after which
// the returned function reports any read error.
func (c *cli) readLines(quit <-chan struct{}) (<-chan string, func() error) {
	lines := make(chan string)
	var err error

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-quit:
				return
			}
		}
		err = scanner.Err()
	}()

	return lines, func() error { return err }
}

func (c *cli) saveAndExit() error {
	if err := c.state.Save(); err != nil {
		return fmt.Errorf("saving chain: %w", err)
	}

	fmt.Fprintln(c.out, "Saved chain. Exiting.")
	return nil
}

// dispatch runs one shell line through a fresh command tree. Errors are
// printed and the shell carries on. Every line gets its own interrupt, so
// cancelling one nonce search leaves the next command unaffected.
func (c *cli) dispatch(parent *cobra.Command, fields []string) {
	sub := c.tree(true)
	sub.SetArgs(fields)
	sub.SetIn(c.in)
	sub.SetOut(c.out)
	sub.SetErr(c.out)

	err := sub.ExecuteContext(parent.Context())
	switch {
	case err == nil:
	case strings.HasPrefix(err.Error(), "unknown command"):
		fmt.Fprintln(c.out, "Unknown command. Type 'help' for a list of commands.")
	default:
		fmt.Fprintln(c.out, err)
	}
}
