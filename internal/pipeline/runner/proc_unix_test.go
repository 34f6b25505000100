//go:build !windows

package runner

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// processAlive treats a zombie as gone: an orphaned child may wait for its
// new parent to reap it.
func processAlive(pid int) bool {
	if unix.Kill(pid, 0) != nil {
		return false
	}
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return true
	}
	// The state field follows the parenthesised command name.
	if i := bytes.LastIndexByte(stat, ')'); i >= 0 && i+2 < len(stat) {
		return stat[i+2] != 'Z'
	}
	return true
}
