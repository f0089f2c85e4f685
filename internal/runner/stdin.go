package runner

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// startStdinToggle starts a goroutine that reads single keypresses from
// stdin and toggles the pauser on Enter or Space. It returns a cleanup
// function that restores the terminal state. If stdin is not a terminal,
// it returns a nil pauser and a no-op cleanup.
func startStdinToggle(w io.Writer, quiet bool) (pauser *Pauser, cleanup func()) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return nil, func() {}
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		if !quiet {
			fmt.Fprintf(w, "[!] Could not enable raw terminal: %v\n", err)
		}
		return nil, func() {}
	}

	// MakeRaw disables OPOST, which stops \n -> \r\n translation.
	// Only raw input is needed, so turn it back on.
	fixOutputProcessing(fd)

	pauser = NewPauser()

	cleanup = func() {
		_ = term.Restore(fd, oldState)
	}

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}

			switch buf[0] {
			case 0x03:
				// Ctrl+C: restore terminal and re-send SIGINT so the
				// signal context fires normally.
				_ = term.Restore(fd, oldState)
				interruptSelf()
				return
			case '\r', '\n', ' ':
				nowPaused := pauser.Toggle()
				if quiet {
					continue
				}
				if nowPaused {
					fmt.Fprintf(w, "\r\033[K[*] Scan PAUSED (running targets finish first). Press Enter or Space to resume\n")
				} else {
					fmt.Fprintf(w, "\r\033[K[*] Scan RESUMED after %s\n", pauser.PausedDuration().Round(time.Second))
				}
			}
		}
	}()

	return pauser, cleanup
}
