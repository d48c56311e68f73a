package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrEmptyPath is returned when no profile path is configured.
var ErrEmptyPath = errors.New("profile: empty path")

// filePerm is the mode of the written profile.
const filePerm = 0o600

// Webserver is the web endpoint of a running hub.
type Webserver struct {
	Scheme string `json:"scheme"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

// MQTTD is the bus endpoint a running hub uses.
type MQTTD struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Websocket int    `json:"websocket"`
}

// Profile describes a running hub.
type Profile struct {
	PID       int       `json:"pid"`
	IP        string    `json:"ip"`
	CWD       string    `json:"cwd"`
	Webserver Webserver `json:"webserver"`
	MQTTD     MQTTD     `json:"mqttd"`
}

// Logger is the logging interface used while stopping a previous hub.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// signal is replaced in tests.
var signal = syscall.Kill

// Read loads a profile. A missing file returns an error wrapping
// os.ErrNotExist.
func Read(path string) (Profile, error) {
	if path == "" {
		return Profile{}, ErrEmptyPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return p, nil
}

// Write stores p at path, replacing any previous profile atomically.
func Write(path string, p Profile) error {
	if path == "" {
		return ErrEmptyPath
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".profile-*")
	if err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("writing profile: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close() //nolint:errcheck,gosec // chmod error takes precedence
		return fmt.Errorf("writing profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}

// Current builds the profile of this process.
func Current(ip string, web Webserver, mqttd MQTTD) Profile {
	cwd, _ := os.Getwd() //nolint:errcheck // an unknown cwd is recorded as ""
	return Profile{
		PID:       os.Getpid(),
		IP:        ip,
		CWD:       cwd,
		Webserver: web,
		MQTTD:     mqttd,
	}
}

// TerminatePrevious stops the hub recorded at path, if it is still alive,
// and waits delay for it to release its ports. It reports whether a
// process was signalled. A missing profile is not an error.
func TerminatePrevious(ctx context.Context, path string, delay time.Duration, logger Logger) (bool, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	prev, err := Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		logger.Warn("ignoring unreadable profile", "path", path, "error", err)
		return false, nil
	}
	if prev.PID <= 0 || prev.PID == os.Getpid() {
		return false, nil
	}

	// Signal 0 probes for a live process without affecting it.
	if err := signal(prev.PID, 0); err != nil {
		return false, nil
	}

	logger.Info("stopping previous hub", "pid", prev.PID, "wait", delay)
	if err := signal(prev.PID, syscall.SIGTERM); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return false, nil
		}
		return false, fmt.Errorf("signalling previous hub %d: %w", prev.PID, err)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return true, fmt.Errorf("waiting for previous hub: %w", ctx.Err())
	case <-timer.C:
		return true, nil
	}
}
