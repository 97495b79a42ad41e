package pidfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
)

// PIDFile manages a process ID file for daemon single-instance enforcement.
// The PID is written to path; path+".lock" carries an advisory lock that the
// kernel drops when the owning process dies, so stale files never block.
type PIDFile struct {
	path string
	lock *flock.Flock
}

// New creates a new PIDFile manager
func New(path string) *PIDFile {
	return &PIDFile{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the PID file location
func (p *PIDFile) Path() string {
	return p.path
}

// Acquire takes the lock and writes the current PID.
// Returns an error if another instance is already running.
func (p *PIDFile) Acquire() error {
	acquired, err := p.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", p.lock.Path(), err)
	}
	if !acquired {
		if pid, err := Read(p.path); err == nil {
			return fmt.Errorf("daemon is already running (PID %d)", pid)
		}
		return fmt.Errorf("daemon is already running (lock %s held)", p.lock.Path())
	}

	pidData := fmt.Sprintf("%d\n", os.Getpid())
	if err := os.WriteFile(p.path, []byte(pidData), 0644); err != nil {
		_ = p.lock.Unlock()
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Release removes the PID file and drops the lock
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	if err := p.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Read returns the PID recorded at path
func Read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file %s: %w", path, err)
	}
	return pid, nil
}

// KillExisting sends SIGTERM to the recorded daemon and waits up to timeout for it to exit
func (p *PIDFile) KillExisting(timeout time.Duration) error {
	pid, err := Read(p.path)
	if err != nil {
		return fmt.Errorf("no running daemon recorded: %w", err)
	}
	if pid == os.Getpid() {
		return fmt.Errorf("refusing to signal own process")
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal PID %d: %w", pid, err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if process.Signal(syscall.Signal(0)) != nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon (PID %d) did not exit within %s", pid, timeout)
}
