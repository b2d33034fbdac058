package commands_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/app/tooling/ledger/commands"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func run(t *testing.T, dir string, input string, args ...string) (string, error) {
	flags := []string{
		"--db-path", filepath.Join(dir, "blockchain.json"),
		"--genesis", filepath.Join(dir, "genesis.json"),
		"--log-path=",
	}

	var out bytes.Buffer
	err := commands.Execute(context.Background(), "test", append(flags, args...), strings.NewReader(input), &out)

	return out.String(), err
}

// start runs the command in the background and reports its result once the
// input is closed or the command ends.
func start(ctx context.Context, dir string, in io.Reader, args ...string) (*bytes.Buffer, <-chan error) {
	flags := []string{
		"--db-path", filepath.Join(dir, "blockchain.json"),
		"--genesis", filepath.Join(dir, "genesis.json"),
		"--log-path=",
	}

	var out bytes.Buffer
	errs := make(chan error, 1)
	go func() {
		errs <- commands.Execute(ctx, "test", append(flags, args...), in, &out)
	}()

	return &out, errs
}

// write returns once the shell has read the text from the pipe.
func write(t *testing.T, w io.Writer, s string) {
	if _, err := io.WriteString(w, s); err != nil {
		t.Fatalf("Should be able to write %q to the shell: %s", s, err)
	}
}

func wait(t *testing.T, errs <-chan error) error {
	select {
	case err := <-errs:
		return err
	case <-time.After(30 * time.Second):
		t.Fatalf("Should see the shell end.")
		return nil
	}
}

func Test_OneShot(t *testing.T) {
	dir := t.TempDir()

	t.Log("Given the need to run one command at a time against a persisted chain.")
	{
		t.Logf("\tTest 0:\tWhen adding blocks and querying balances.")
		{
			steps := []struct {
				args []string
				exp  string
			}{
				{[]string{"add", "hello", "world"}, "Block added (index 1)."},
				{[]string{"contract", "mint", "alice", "100"}, "Block added (index 2)."},
				{[]string{"contract", "transfer", "alice", "bob", "30"}, "Block added (index 3)."},
				{[]string{"balance", "alice"}, "alice: 70"},
				{[]string{"balance", "bob"}, "bob: 30"},
				{[]string{"balance", "nobody"}, "nobody: 0"},
				{[]string{"history", "bob"}, "block 3: transfer 30 from alice to bob"},
				{[]string{"last"}, "Contract: transfer 30 from alice to bob"},
				{[]string{"print"}, "Payload: hello world"},
				{[]string{"validate"}, "Chain is valid (4 blocks)."},
			}

			for i, stp := range steps {
				out, err := run(t, dir, "", stp.args...)
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tStep %d: Should be able to run %v: %s", failed, i, stp.args, err)
				}

				if !strings.Contains(out, stp.exp) {
					t.Logf("\t%s\tTest 0:\tgot: %s", failed, out)
					t.Logf("\t%s\tTest 0:\texp: %s", failed, stp.exp)
					t.Fatalf("\t%s\tTest 0:\tStep %d: Should get back the expected output for %v.", failed, i, stp.args)
				}
				t.Logf("\t%s\tTest 0:\tStep %d: Should get back the expected output for %v.", success, i, stp.args)
			}
		}

		t.Logf("\tTest 1:\tWhen sending malformed commands.")
		{
			tt := [][]string{
				{"contract", "transfer", "alice", "bob", "ten"},
				{"contract", "mint", "alice"},
				{"balance"},
				{"add"},
			}

			for _, args := range tt {
				if _, err := run(t, dir, "", args...); err == nil {
					t.Fatalf("\t%s\tTest 1:\tShould reject %v.", failed, args)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould reject malformed commands.", success)

			out, err := run(t, dir, "", "balance", "alice")
			if err != nil || !strings.Contains(out, "alice: 70") {
				t.Fatalf("\t%s\tTest 1:\tShould leave the chain unchanged: %s", failed, out)
			}
			t.Logf("\t%s\tTest 1:\tShould leave the chain unchanged.", success)
		}
	}
}

func Test_Shell(t *testing.T) {
	dir := t.TempDir()

	input := strings.Join([]string{
		"add first block",
		"contract mint alice 50",
		"contract burn alice 20",
		"CONTRACT message alice hello there",
		"contract transfer alice bob lots",
		"balance alice",
		"history alice",
		"dance",
		"help",
		"",
		"exit",
		"add never runs",
	}, "\n")

	out, err := run(t, dir, input, "shell")
	if err != nil {
		t.Fatalf("Should be able to run the shell: %s", err)
	}

	exp := []string{
		"Block added (index 1).",
		"Block added (index 3).",
		"Block added (index 4).",
		`amount must be an integer, got "lots"`,
		"alice: 30",
		"block 2: mint 50 to alice",
		`block 4: message from alice: "hello there"`,
		"Unknown command. Type 'help' for a list of commands.",
		"Commands:",
		"Saved chain. Exiting.",
	}
	for _, e := range exp {
		if !strings.Contains(out, e) {
			t.Logf("got: %s", out)
			t.Fatalf("Should find %q in the shell output.", e)
		}
	}

	if strings.Contains(out, "index 5") {
		t.Fatalf("Should stop reading commands after exit.")
	}

	out, err = run(t, dir, "", "validate")
	if err != nil || !strings.Contains(out, "Chain is valid (5 blocks).") {
		t.Fatalf("Should reload the chain saved by the shell: %s %v", out, err)
	}

	out, err = run(t, dir, "", "purge")
	if err != nil || !strings.Contains(out, "Chain reset to genesis block.") {
		t.Fatalf("Should be able to purge the chain: %s %v", out, err)
	}

	out, err = run(t, dir, "", "balance", "alice")
	if err != nil || !strings.Contains(out, "alice: 0") {
		t.Fatalf("Should have no balance after a purge: %s %v", out, err)
	}
}

func Test_ShellInterrupt(t *testing.T) {
	interrupts := make(chan os.Signal)
	defer commands.SetInterrupts(interrupts)()

	t.Log("Given the need to interrupt the shell without losing the session.")
	{
		t.Logf("\tTest 0:\tWhen interrupting a nonce search.")
		{
			dir := t.TempDir()

			// No nonce solves this difficulty, every search runs until it
			// is interrupted or times out.
			if err := os.WriteFile(filepath.Join(dir, "genesis.json"), []byte(`{"difficulty":64}`), 0600); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write the genesis file: %s", failed, err)
			}

			pr, pw := io.Pipe()
			out, errs := start(context.Background(), dir, pr, "--timeout", "1s", "shell")

			// The second line is only read once the first one is running.
			write(t, pw, "add slow\n")
			write(t, pw, "add again\n")
			interrupts <- os.Interrupt
			write(t, pw, "exit\n")
			pw.Close()

			if err := wait(t, errs); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to run the shell: %s", failed, err)
			}

			got := out.String()
			if strings.Count(got, "context canceled") != 1 {
				t.Logf("\t%s\tTest 0:\tgot: %s", failed, got)
				t.Fatalf("\t%s\tTest 0:\tShould cancel only the interrupted search.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould cancel only the interrupted search.", success)

			if !strings.Contains(got, "context deadline exceeded") {
				t.Logf("\t%s\tTest 0:\tgot: %s", failed, got)
				t.Fatalf("\t%s\tTest 0:\tShould run the next search with a fresh context.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould run the next search with a fresh context.", success)

			if !strings.Contains(got, "Saved chain. Exiting.") {
				t.Fatalf("\t%s\tTest 0:\tShould keep reading commands after an interrupt: %s", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould keep reading commands after an interrupt.", success)
		}

		t.Logf("\tTest 1:\tWhen interrupting or ending an idle shell.")
		{
			tt := []struct {
				name string
				stop func(cancel context.CancelFunc)
			}{
				{"interrupt", func(context.CancelFunc) { interrupts <- os.Interrupt }},
				{"terminate", func(cancel context.CancelFunc) { cancel() }},
			}

			for _, tst := range tt {
				dir := t.TempDir()
				ctx, cancel := context.WithCancel(context.Background())

				pr, pw := io.Pipe()
				out, errs := start(ctx, dir, pr, "shell")

				// The partial line is only read once the balance line has
				// been handed over, so the shell is idle after the block is added.
				write(t, pw, "add first\n")
				write(t, pw, "balance alice\n")
				write(t, pw, "val")
				tst.stop(cancel)

				err := wait(t, errs)
				pw.Close()
				cancel()

				if err != nil {
					t.Fatalf("\t%s\tTest 1:\t%s: Should end the shell cleanly: %s", failed, tst.name, err)
				}

				got := out.String()
				for _, exp := range []string{"Block added (index 1).", "alice: 0", "Saved chain. Exiting."} {
					if !strings.Contains(got, exp) {
						t.Logf("\t%s\tTest 1:\tgot: %s", failed, got)
						t.Fatalf("\t%s\tTest 1:\t%s: Should find %q in the shell output.", failed, tst.name, exp)
					}
				}
				t.Logf("\t%s\tTest 1:\t%s: Should save the chain and exit.", success, tst.name)

				got, err = run(t, dir, "", "validate")
				if err != nil || !strings.Contains(got, "Chain is valid (2 blocks).") {
					t.Fatalf("\t%s\tTest 1:\t%s: Should reload the saved chain: %s %v", failed, tst.name, got, err)
				}
				t.Logf("\t%s\tTest 1:\t%s: Should reload the saved chain.", success, tst.name)
			}
		}
	}
}
