package shell_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/qpm/internal/adapters/shell"
	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func newRunner(t *testing.T, opts ...shell.Option) *shell.Runner {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	return shell.NewRunner(log, opts...)
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	err := newRunner(t).Run(context.Background(), dir, "echo hello && pwd && echo oops >&2", nil, &stdout, &stderr)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "hello", lines[0])
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, resolved, lines[1])
	assert.Equal(t, "oops\n", stderr.String())
}

func TestRunner_AppendsQuotedArgs(t *testing.T) {
	var stdout bytes.Buffer

	err := newRunner(t).Run(context.Background(), t.TempDir(), `printf '%s\n'`,
		[]string{"plain", "two words", "it's", "$HOME"}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "plain\ntwo words\nit's\n$HOME\n", stdout.String())
}

func TestRunner_PrependsBinDir(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, domain.ModulesDirName, domain.BinDirName)
	require.NoError(t, os.MkdirAll(bin, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "greet"), []byte("#!/bin/sh\necho hi from bin\n"), domain.ExecPerm))

	var stdout bytes.Buffer
	err := newRunner(t).Run(context.Background(), dir, "greet", nil, &stdout, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "hi from bin\n", stdout.String())
}

func TestRunner_ExitCode(t *testing.T) {
	err := newRunner(t).Run(context.Background(), t.TempDir(), "exit 3", nil, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script failed")

	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr))
	assert.Equal(t, 3, zErr.Metadata()["exit_code"])
	assert.Equal(t, "exit 3", zErr.Metadata()["command"])
}

func TestRunner_PTY(t *testing.T) {
	var stdout bytes.Buffer

	err := newRunner(t, shell.WithPTY(true)).Run(context.Background(), t.TempDir(), "echo via-pty", nil, &stdout, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "via-pty")
}

func TestRunner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newRunner(t).Run(ctx, t.TempDir(), "sleep 5", nil, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
}
