//go:build !windows

package runner

import (
	"os"
	"syscall"
)

// interruptSelf delivers SIGINT to this process. Raw mode swallows the
// terminal's own Ctrl+C, so the key reader forwards it here.
func interruptSelf() {
	_ = syscall.Kill(os.Getpid(), syscall.SIGINT)
}
