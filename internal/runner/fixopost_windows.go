//go:build windows

package runner

// fixOutputProcessing is a no-op: the Windows console keeps newline
// translation in raw input mode.
func fixOutputProcessing(int) {}
