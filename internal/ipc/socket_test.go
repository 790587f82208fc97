package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClaimReplacesStaleSocket(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "assist.sock")
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	owner, err := Claim(context.Background(), socketPath, 50*time.Millisecond)
	require.NoError(t, err)

	info, err := os.Stat(socketPath)
	require.NoError(t, err)
	require.Equal(t, os.ModeSocket, info.Mode()&os.ModeSocket)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	owner.Release()
	_, err = os.Stat(socketPath)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestClaimCreatesRuntimeDir(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "nested", "assist.sock")
	owner, err := Claim(context.Background(), socketPath, 50*time.Millisecond)
	require.NoError(t, err)
	defer owner.Release()

	info, err := os.Stat(filepath.Dir(socketPath))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestClaimReturnsAlreadyRunningWhenOwnerAnswers(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "assist.sock")
	shutdown := serveForTest(t, socketPath, func(context.Context, Request) Response {
		return Response{OK: true, State: "listening"}
	})
	defer shutdown()

	_, err := Claim(context.Background(), socketPath, 80*time.Millisecond)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestClaimKeepsSocketWhenProbeInconclusive(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "assist.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		for {
			conn, acceptErr := listener.Accept()
			if acceptErr != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				time.Sleep(250 * time.Millisecond)
			}(conn)
		}
	}()

	_, err = Claim(context.Background(), socketPath, 30*time.Millisecond)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAlreadyRunning)
	require.Contains(t, err.Error(), "probe existing socket")

	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
	require.NoError(t, listener.Close())
	<-acceptDone
}

func TestRuntimeSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")
	_, err := RuntimeSocketPath()
	require.Error(t, err)

	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	path, err := RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, "/run/user/1000/assist.sock", path)
}
