//go:build !windows

// Package shutdown delivers the OS termination signals that end a run.
package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

// Listen returns a channel that fires on interrupt or SIGTERM.
func Listen() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}
