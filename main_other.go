//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// golang.design/x/hotkey delivers events only on the process main thread.
func main() {
	mainthread.Init(run)
}
