package audio

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// SelectDevice prompts for a microphone on the terminal and returns the
// chosen device. With a single device there is nothing to choose and it
// is returned without prompting.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	switch len(devices) {
	case 0:
		return nil, fmt.Errorf("no capture devices found")
	case 1:
		return &devices[0], nil
	}
	return pickDevice(devices)
}

// pickDevice runs a raw-mode arrow/jk picker over the device list.
func pickDevice(devices []DeviceInfo) (*DeviceInfo, error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	draw := func() {
		fmt.Print("\r\x1b[J")
		fmt.Print("Pick a microphone (arrows or j/k, Enter to use):\r\n\r\n")
		for i, d := range devices {
			line := d.Name
			if IsBluetooth(d.Name) {
				line += " \x1b[33m[bluetooth: reduced quality]\x1b[0m"
			}
			if i == cursor {
				fmt.Printf("  \x1b[1;36m> %s\x1b[0m\r\n", line)
			} else {
				fmt.Printf("    %s\r\n", line)
			}
		}
	}
	draw()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}

		var up, down bool
		if n == 3 && buf[0] == 0x1b && buf[1] == '[' {
			up = buf[2] == 'A'
			down = buf[2] == 'B'
		} else if n == 1 {
			switch buf[0] {
			case '\r':
				fmt.Print("\r\n")
				term.Restore(fd, oldState)
				return &devices[cursor], nil
			case 3: // ctrl+c
				fmt.Print("\r\n")
				term.Restore(fd, oldState)
				os.Exit(130)
			case 'k':
				up = true
			case 'j':
				down = true
			}
		}
		if up && cursor > 0 {
			cursor--
		}
		if down && cursor < len(devices)-1 {
			cursor++
		}

		fmt.Printf("\x1b[%dA", len(devices)+2)
		draw()
	}
}
