// Package lockfile advertises a running habitual server to other local
// processes. The file holds "addr|pid" and is trusted only while pid is a
// live habitual process.
package lockfile

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitual/internal/constants"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid

	ErrNotRunning = errors.New("habitual server is not running")
)

// Path returns the lockfile location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, constants.ServerLockfileName)
}

// Write records addr and the current pid.
func Write(dir, addr string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create lockfile directory: %w", err)
	}
	content := fmt.Sprintf("%s|%d", addr, getpidFunc())
	return os.WriteFile(Path(dir), []byte(content), 0600)
}

// Remove deletes the lockfile if it belongs to this process.
func Remove(dir string) error {
	_, pid, err := read(Path(dir))
	if err != nil {
		return nil
	}
	if pid != getpidFunc() {
		return nil
	}
	if err := os.Remove(Path(dir)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Find returns the address of the server that wrote the lockfile in dir.
func Find(dir string) (string, error) {
	addr, pid, err := read(Path(dir))
	if err != nil {
		return "", err
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", ErrNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.AppName, process.Executable())
	}
	return addr, nil
}

func read(path string) (string, int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", 0, ErrNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 2 {
		return "", 0, errors.New("lockfile is malformed")
	}

	addr := strings.TrimSpace(parts[0])
	if _, port, err := net.SplitHostPort(addr); err != nil || port == "" {
		return "", 0, fmt.Errorf("invalid address %q in lockfile", addr)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil || pid <= 0 {
		return "", 0, errors.New("invalid process ID in lockfile")
	}
	return addr, pid, nil
}
