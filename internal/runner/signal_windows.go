//go:build windows

package runner

import "syscall"

var procGenerateConsoleCtrlEvent = syscall.NewLazyDLL("kernel32.dll").NewProc("GenerateConsoleCtrlEvent")

// interruptSelf raises CTRL_C_EVENT for the console process group.
func interruptSelf() {
	const ctrlCEvent, allProcesses = 0, 0
	_, _, _ = procGenerateConsoleCtrlEvent.Call(ctrlCEvent, allProcesses)
}
