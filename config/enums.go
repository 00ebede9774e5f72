package config

import (
	"fmt"
	"strings"
)

// Specification of email document shell.
type ShellFormat int

const (
	ShellFormatHtml5 ShellFormat = iota
	ShellFormatXhtml
)

var shellFormatNames = []string{"html5", "xhtml"}

// ShellFormatNames returns list of possible string values.
func ShellFormatNames() []string {
	return append([]string(nil), shellFormatNames...)
}

func (f ShellFormat) String() string {
	if f.IsValid() {
		return shellFormatNames[f]
	}
	return fmt.Sprintf("ShellFormat(%d)", int(f))
}

func (f ShellFormat) IsValid() bool {
	return f >= ShellFormatHtml5 && int(f) < len(shellFormatNames)
}

// ParseShellFormat converts name (case insensitive) to ShellFormat.
func ParseShellFormat(name string) (ShellFormat, error) {
	for i, n := range shellFormatNames {
		if strings.EqualFold(n, name) {
			return ShellFormat(i), nil
		}
	}
	return ShellFormat(0), fmt.Errorf("%s is not a valid ShellFormat, try [%s]", name, strings.Join(shellFormatNames, ", "))
}

func (f ShellFormat) MarshalText() ([]byte, error) {
	if !f.IsValid() {
		return nil, fmt.Errorf("invalid ShellFormat %d", int(f))
	}
	return []byte(f.String()), nil
}

func (f *ShellFormat) UnmarshalText(text []byte) error {
	v, err := ParseShellFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
