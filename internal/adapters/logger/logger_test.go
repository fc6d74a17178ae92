package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/qpm/internal/adapters/logger"
	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger writing to a buffer without ANSI escape codes.
func newTestLogger(t *testing.T, opts ...logger.Option) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New(append([]logger.Option{logger.WithOutput(buf)}, opts...)...)
	return lg, buf
}

func TestLogger_Info(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Info("installed", "package", "left-pad", "version", "1.3.0")

	g := goldie.New(t)
	g.Assert(t, "info_attrs", buf.Bytes())
}

func TestLogger_Warn(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Warn("failed to link package")

	assert.Equal(t, "! failed to link package\n", buf.String())
}

func TestLogger_DebugLevel(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Debug("hidden")
	assert.Empty(t, buf.String())

	lg.SetLevel(slog.LevelDebug)
	lg.Debug("resolving", "package", "x")
	assert.Equal(t, "● x: resolving\n", buf.String())
}

func TestLogger_PrettyAttributes(t *testing.T) {
	lg, buf := newTestLogger(t, logger.WithLevel("debug"))
	lg.Debug("task state",
		"run_id", "0b6f3c2e-8d1a-4c53-9b7e-2f4a1d9e6c10",
		"package", "@types/node",
		"state", "downloading",
		"selector", "^1.0.0 || ^2.0.0",
		"slot", "",
	)

	assert.Equal(t,
		"● @types/node: task state run_id=0b6f3c2e state=downloading selector=\"^1.0.0 || ^2.0.0\" slot=\"\"\n",
		buf.String(),
	)
}

func TestLogger_WithLevel(t *testing.T) {
	lg, buf := newTestLogger(t, logger.WithLevel("warn"))
	lg.Info("dropped")
	lg.Warn("kept")

	assert.Equal(t, "! kept\n", buf.String())
}

func TestLogger_ErrorChain(t *testing.T) {
	lg, buf := newTestLogger(t)

	err := zerr.Wrap(
		zerr.Wrap(errors.New("connection refused"), "failed to fetch tarball"),
		"install left-pad",
	)
	lg.Error(err)

	g := goldie.New(t)
	g.Assert(t, "error_chain", buf.Bytes())
}

func TestLogger_ErrorTagged(t *testing.T) {
	lg, buf := newTestLogger(t)

	err := domain.WithPackage(
		domain.WrapError(domain.KindNetwork, errors.New("connection refused"), "failed to fetch tarball"),
		"left-pad",
	)
	lg.Error(err)

	out := buf.String()
	assert.Contains(t, out, "Error: left-pad: network error")
	assert.Contains(t, out, "→ failed to fetch tarball")
	assert.Contains(t, out, "→ connection refused")
}

func TestLogger_ErrorJoined(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Error(errors.Join(errors.New("first"), errors.New("second")))

	assert.Equal(t, "✗ Error: first\n✗ Error: second\n", buf.String())
}

func TestLogger_ErrorNil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t, logger.WithJSON(true))
	lg.Info("installed", "package", "left-pad")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "installed", record["msg"])
	assert.Equal(t, "left-pad", record["package"])
	assert.Equal(t, "INFO", record["level"])
}

func TestLogger_SetJSONKeepsOutput(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)
	lg.Warn("careful")

	assert.Contains(t, buf.String(), `"msg":"careful"`)

	other := &bytes.Buffer{}
	lg.SetOutput(other)
	lg.Warn("moved")
	assert.NotContains(t, buf.String(), "moved")
	assert.Contains(t, other.String(), `"msg":"moved"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel(""))
}
