package commands

import "os"

// SetInterrupts replaces the operating system interrupts with the channel
// until the returned function is called.
func SetInterrupts(ch <-chan os.Signal) func() {
	orig := notifyInterrupt
	notifyInterrupt = func() (<-chan os.Signal, func()) {
		return ch, func() {}
	}

	return func() { notifyInterrupt = orig }
}
