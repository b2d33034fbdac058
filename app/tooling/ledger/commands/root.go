// Package commands contains the ledger command line surface.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/ardanlabs/ledger/business/sys/store"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli holds the settings from the command line and the ledger they open.
type cli struct {
	build string
	in    io.Reader
	out   io.Writer

	store       string
	dbPath      string
	genesisPath string
	logPath     string
	timeout     time.Duration

	log        *zap.SugaredLogger
	state      *state.State
	interrupts <-chan os.Signal
}

// notifyInterrupt registers for the interrupt signal. The returned function
// stops delivery.
var notifyInterrupt = func() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch, func() { signal.Stop(ch) }
}

// Execute runs the command specified by the arguments. The ledger is opened
// before the command runs and closed once it returns. Cancelling the context
// ends the command. An interrupt cancels the nonce search in progress, and
// at an idle shell prompt it saves the chain and exits.
func Execute(ctx context.Context, build string, args []string, in io.Reader, out io.Writer) error {
	interrupts, stop := notifyInterrupt()
	defer stop()

	c := cli{
		build:      build,
		in:         in,
		out:        out,
		interrupts: interrupts,
	}
	defer c.shutdown()

	root := c.tree(false)
	root.Version = build

	root.PersistentFlags().StringVar(&c.store, "store", store.File, "Storage backend: file, level or memory.")
	root.PersistentFlags().StringVar(&c.dbPath, "db-path", "zblock/blockchain.json", "Path to the persisted chain.")
	root.PersistentFlags().StringVar(&c.genesisPath, "genesis", "zblock/genesis.json", "Path to the genesis settings, defaults apply when missing.")
	root.PersistentFlags().StringVar(&c.logPath, "log-path", "zblock/ledger.log", "Path of the log file, empty disables logging.")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 0, "Maximum time to search for a nonce, zero means no limit.")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return c.open()
	}

	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	return root.ExecuteContext(ctx)
}

// tree constructs the command tree. The shell dispatches every line through
// a fresh tree that shares the open ledger, and a shell can't be nested.
func (c *cli) tree(nested bool) *cobra.Command {
	root := cobra.Command{
		Use:           "ledger",
		Short:         "A hash chained ledger with contracts and balances.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		c.addCmd(),
		c.contractCmd(),
		c.balanceCmd(),
		c.historyCmd(),
		c.printCmd(),
		c.lastCmd(),
		c.validateCmd(),
		c.purgeCmd(),
	)

	if !nested {
		root.AddCommand(c.shellCmd())
	}

	return &root
}

// open constructs the logger and the ledger.
func (c *cli) open() error {
	if c.state != nil {
		return nil
	}

	log := zap.NewNop().Sugar()
	if c.logPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.logPath), 0755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}

		var err error
		if log, err = logger.New("LEDGER", c.logPath); err != nil {
			return fmt.Errorf("constructing logger: %w", err)
		}
	}
	c.log = log

	gen, err := genesis.Load(c.genesisPath)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		gen = genesis.Default()
	default:
		return fmt.Errorf("loading genesis: %w", err)
	}

	storage, err := store.Open(store.Config{
		Kind:   c.store,
		DBPath: c.dbPath,
	})
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	st, err := state.New(state.Config{
		Storage:       storage,
		Genesis:       gen,
		MiningTimeout: c.timeout,
		EvHandler:     events.New().Handler(log),
	})
	if err != nil {
		storage.Close()
		return err
	}
	c.state = st

	c.log.Infow("startup", "version", c.build, "store", c.store, "height", st.LatestBlock().Index)

	return nil
}

// shutdown closes the ledger if it was opened.
func (c *cli) shutdown() {
	if c.state != nil {
		if err := c.state.Shutdown(); err != nil {
			c.log.Errorw("shutdown", "ERROR", err)
		}
		c.state = nil
	}

	if c.log != nil {
		c.log.Sync()
	}
}

// interruptible returns a context for one command that is cancelled by the
// next interrupt. The returned function must be called once the command is
// done so the interrupt is no longer claimed.
func (c *cli) interruptible(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		select {
		case <-c.interrupts:
			c.log.Infow("interrupt", "status", "cancel nonce search")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		cancel()
		<-done
	}
}

// =============================================================================

// usage validates the number of arguments and reports the usage line when
// they are wrong.
func usage(min int, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < min || (max >= 0 && len(args) > max) {
			return fmt.Errorf("usage: %s", cmd.UseLine())
		}
		return nil
	}
}
