// This program runs the ledger from the command line, either one command at
// a time or as an interactive shell.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/ledger/app/tooling/ledger/commands"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Termination ends the command. Interrupts are handled per command so
	// a nonce search can be cancelled without ending a shell session.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, build, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		stop()
		os.Exit(1)
	}
}
