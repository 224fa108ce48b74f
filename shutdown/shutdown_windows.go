//go:build windows

// Package shutdown delivers the OS termination signals that end a run.
package shutdown

import (
	"os"
	"os/signal"
)

// Listen returns a channel that fires on interrupt. SIGTERM does not
// exist on Windows.
func Listen() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch
}
