package uds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startService(t *testing.T) (*Service, string) {
	t.Helper()
	// unix socket paths are length-limited; keep them short
	dir, err := os.MkdirTemp("", "uds")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	sock := filepath.Join(dir, "ctl.sock")

	cmds := NewCommandStore()
	cmds.Register("echo", CmdHnd{
		Desc:  "print the arguments",
		Usage: "<words...>",
		Fn: func(ctx context.Context, args []string, w io.Writer) error {
			_, err := fmt.Fprintln(w, strings.Join(args, " "))
			return err
		},
	})
	cmds.Register("fail", CmdHnd{
		Desc:  "always fails",
		Usage: "<nothing>",
		Fn: func(ctx context.Context, args []string, w io.Writer) error {
			return errors.New("nope")
		},
	})

	s := NewService(context.Background(), sock, cmds)
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		s.Stop()
		select {
		case <-s.Done():
		case <-time.After(2 * time.Second):
			t.Error("uds service did not stop")
		}
	})
	return s, sock
}

func send(t *testing.T, sock, line string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out bytes.Buffer
	require.NoError(t, Send(ctx, sock, line, &out))
	return out.String()
}

func TestCommands(t *testing.T) {
	_, sock := startService(t)

	assert.Equal(t, "hello water\n", send(t, sock, "echo hello water"))

	help := send(t, sock, "help")
	assert.Contains(t, help, "echo <words...>")
	assert.Contains(t, help, "always fails")
	assert.Less(t, strings.Index(help, "echo"), strings.Index(help, "fail"))

	assert.Equal(t, "unknown command: nope\n", send(t, sock, "nope"))

	failed := send(t, sock, "fail")
	assert.Contains(t, failed, "error: nope")
	assert.Contains(t, failed, "usage: fail <nothing>")
}

func TestSocketPermissions(t *testing.T) {
	_, sock := startService(t)
	fi, err := os.Stat(sock)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestRegisterRejectsReservedAndDuplicate(t *testing.T) {
	cmds := NewCommandStore()
	assert.Panics(t, func() { cmds.Register("help", CmdHnd{}) })
	cmds.Register("stats", CmdHnd{})
	assert.Panics(t, func() { cmds.Register("stats", CmdHnd{}) })
}
