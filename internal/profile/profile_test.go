package profile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	pid int
	sig syscall.Signal
}

func fakeSignal(t *testing.T, alive bool) *[]call {
	t.Helper()
	var calls []call
	orig := signal
	signal = func(pid int, sig syscall.Signal) error {
		calls = append(calls, call{pid, sig})
		if !alive {
			return syscall.ESRCH
		}
		return nil
	}
	t.Cleanup(func() { signal = orig })
	return &calls
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	p := Current("192.168.1.20",
		Webserver{Scheme: "http", Host: "192.168.1.20", Port: 11223},
		MQTTD{Host: "localhost", Port: 1883, Websocket: 9001})

	require.NoError(t, Write(path, p))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Equal(t, os.Getpid(), got.PID)
}

func TestReadErrors(t *testing.T) {
	_, err := Read("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = Read(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = Read(bad)
	assert.Error(t, err)
}

func TestTerminatePreviousSignalsLiveProcess(t *testing.T) {
	calls := fakeSignal(t, true)
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, Write(path, Profile{PID: 999999}))

	killed, err := TerminatePrevious(context.Background(), path, time.Millisecond, nil)
	require.NoError(t, err)
	assert.True(t, killed)
	assert.Equal(t, []call{{999999, 0}, {999999, syscall.SIGTERM}}, *calls)
}

func TestTerminatePreviousSkips(t *testing.T) {
	dir := t.TempDir()
	self := filepath.Join(dir, "self.json")
	require.NoError(t, Write(self, Profile{PID: os.Getpid()}))
	dead := filepath.Join(dir, "dead.json")
	require.NoError(t, Write(dead, Profile{PID: 999999}))

	calls := fakeSignal(t, false)

	for _, path := range []string{filepath.Join(dir, "absent.json"), self, dead} {
		killed, err := TerminatePrevious(context.Background(), path, time.Hour, nil)
		require.NoError(t, err)
		assert.False(t, killed, path)
	}
	assert.Equal(t, []call{{999999, 0}}, *calls)
}

func TestTerminatePreviousHonoursContext(t *testing.T) {
	fakeSignal(t, true)
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, Write(path, Profile{PID: 999999}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	killed, err := TerminatePrevious(ctx, path, time.Hour, nil)
	assert.True(t, killed)
	assert.True(t, errors.Is(err, context.Canceled))
}
