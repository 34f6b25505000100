package runner

import (
	"strings"
)

const shellSpecial = " \t\n\"'`$\\|&;<>()*?[]{}#~!"

// FormatCommand renders name and args as a single line for logs and error
// reports. The result is for display only; commands are always launched
// with an argument vector.
func FormatCommand(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(name))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecial) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
