//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// CleanFileName drops characters which could not be part of a file name and
// leading dots, which would make file hidden.
func CleanFileName(in string) string {
	const forbidden = string(os.PathSeparator) + string(os.PathListSeparator)
	out := strings.TrimLeft(strings.Map(func(sym rune) rune {
		if sym == 0 || strings.ContainsRune(forbidden, sym) {
			return -1
		}
		return sym
	}, in), ".")
	if len(out) == 0 {
		return unnamedFile
	}
	return out
}

// EnableColorOutput reports whether stream is a terminal.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
