package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrNotRunning is returned by Running when no live daemon owns the file.
var ErrNotRunning = errors.New("autothrottle daemon is not running")

// AlreadyRunningError reports the live process holding the PID file.
type AlreadyRunningError struct {
	PID int
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("autothrottle daemon is already running (PID %d)", e.PID)
}

// PIDFile keeps a single controller daemon per PID file path.
type PIDFile struct {
	path string
}

// New creates a new PIDFile manager
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the file location.
func (p *PIDFile) Path() string {
	return p.path
}

// Acquire writes the current PID. A file left by a dead process, or one
// that does not hold a number, is replaced; a live owner yields an
// *AlreadyRunningError.
func (p *PIDFile) Acquire() error {
	pid, err := p.read()
	switch {
	case err == nil && pid != os.Getpid() && isProcessRunning(pid):
		return &AlreadyRunningError{PID: pid}
	case err != nil && !errors.Is(err, os.ErrNotExist) && !errors.Is(err, strconv.ErrSyntax):
		return fmt.Errorf("failed to read existing PID file: %w", err)
	}

	data := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(p.path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Release removes the PID file
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Running returns the PID of the live daemon, or ErrNotRunning.
func (p *PIDFile) Running() (int, error) {
	pid, err := p.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, strconv.ErrSyntax) {
			return 0, ErrNotRunning
		}
		return 0, err
	}
	if !isProcessRunning(pid) {
		return 0, ErrNotRunning
	}
	return pid, nil
}

func (p *PIDFile) read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// isProcessRunning probes pid with signal 0, which checks existence and
// permission without delivering anything.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return true
	case errors.Is(err, syscall.EPERM):
		// exists, owned by someone else
		return true
	default:
		return false
	}
}
