package util

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether fd is attached to a terminal. Progress bars
// and table rendering are suppressed when output is piped.
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// GetTerminalWidth returns the terminal width for stdout, falling back to
// 80 columns when not a terminal.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return width
	}
	return 80
}
