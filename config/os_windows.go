//go:build windows

package config

import (
	"os"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
	"golang.org/x/term"
)

// CleanFileName drops characters which could not be part of a file name.
func CleanFileName(in string) string {
	const forbidden = `<>":/\|?*` + string(os.PathSeparator) + string(os.PathListSeparator)
	out := strings.TrimRight(strings.Map(func(sym rune) rune {
		if sym < ' ' || strings.ContainsRune(forbidden, sym) {
			return -1
		}
		return sym
	}, in), ". ")
	if len(out) == 0 {
		return unnamedFile
	}
	return out
}

// EnableColorOutput checks if colorized output is possible and
// enables proper VT100 sequence processing in Windows console.
func EnableColorOutput(stream *os.File) bool {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Windows NT\CurrentVersion`, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer k.Close()

	v, _, err := k.GetIntegerValue("CurrentMajorVersionNumber")
	if err != nil {
		return false
	}

	if v < 10 || !term.IsTerminal(int(stream.Fd())) {
		return false
	}

	var mode uint32
	handle := windows.Handle(stream.Fd())
	if err := windows.GetConsoleMode(handle, &mode); err != nil {
		return false
	}
	return windows.SetConsoleMode(handle, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil
}
