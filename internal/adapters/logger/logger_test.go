package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/avrogen/internal/adapters/logger"
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/zerr"
)

func newBufferedLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Info(t *testing.T) {
	lg, buf := newBufferedLogger(t)
	lg.Info("some message")
	assert.Equal(t, "some message\n", buf.String())
}

func TestLogger_Warn(t *testing.T) {
	lg, buf := newBufferedLogger(t)
	lg.Warn("some warning")
	assert.Equal(t, "! some warning\n", buf.String())
}

func TestLogger_Error(t *testing.T) {
	lg, buf := newBufferedLogger(t)
	lg.Error(os.ErrPermission)
	assert.Equal(t, "✗ Error: permission denied\n", buf.String())
}

func TestLogger_ErrorNil(t *testing.T) {
	lg, buf := newBufferedLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_ErrorChain(t *testing.T) {
	lg, buf := newBufferedLogger(t)
	err := zerr.Wrap(domain.NewParseError("schemas/a.avsc", zerr.New("unknown type: Bar")), "flat schema failed")
	lg.Error(err)

	assert.Equal(t, "    ✗ schemas/a.avsc: Error: flat schema failed\n\n"+
		"  Caused by:\n"+
		"    → schema parse failed: unknown type: Bar\n", buf.String())
}

func TestLogger_ErrorSourceDir(t *testing.T) {
	lg, buf := newBufferedLogger(t)
	lg.Error(zerr.With(zerr.With(domain.ErrUnsupportedFormat, "format", "idl"), "source_dir", "schemas"))

	assert.Equal(t, "✗ schemas: Error: unsupported source format\n       format: idl\n", buf.String())
}

func TestPrettyHandler_Location(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name  string
		level slog.Level
		args  []any
		want  string
	}{
		{"info without location", slog.LevelInfo, nil, "published 2 imported types\n"},
		{"info about a file", slog.LevelInfo, []any{"file", "common/money.avsc"}, "    ● common/money.avsc: published 2 imported types\n"},
		{"warning about a directory", slog.LevelWarn, []any{"source_dir", "schemas"}, "! schemas: published 2 imported types\n"},
		{"file wins over directory", slog.LevelError, []any{"source_dir", "schemas", "file", "schemas/a.avsc"}, "    ✗ schemas/a.avsc: published 2 imported types\n"},
		{"other attributes trail", slog.LevelInfo, []any{"count", 2}, "published 2 imported types count=2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			slog.New(logger.NewPrettyHandler(buf, nil)).Log(context.Background(), tt.level, "published 2 imported types", tt.args...)
			assert.Equal(t, tt.want, buf.String())
		})
	}

	t.Run("grouped attributes are not locations", func(t *testing.T) {
		buf := &bytes.Buffer{}
		slog.New(logger.NewPrettyHandler(buf, nil)).WithGroup("import").Info("done", "file", "a.avsc")
		assert.Equal(t, "done import.file=a.avsc\n", buf.String())
	})

	t.Run("location from WithAttrs", func(t *testing.T) {
		buf := &bytes.Buffer{}
		slog.New(logger.NewPrettyHandler(buf, nil)).With("source_dir", "schemas").Warn("slow")
		assert.Equal(t, "! schemas: slow\n", buf.String())
	})

	t.Run("level filter", func(t *testing.T) {
		buf := &bytes.Buffer{}
		slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelWarn})).Info("hidden")
		assert.Empty(t, buf.String())
	})
}

func TestLogger_JSONMode(t *testing.T) {
	lg, buf := newBufferedLogger(t)
	lg.SetJSON(true)
	lg.Info("hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "INFO", record["level"])

	buf.Reset()
	lg.Error(zerr.With(domain.NewParseError("/src/a.avsc", zerr.New("boom")), "source_dir", "/src"))
	record = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "operation failed", record["msg"])
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "/src/a.avsc", record["file"])
	assert.Equal(t, "/src", record["source_dir"])
}

func TestLogger_SetOutputKeepsMode(t *testing.T) {
	lg, _ := newBufferedLogger(t)
	lg.SetJSON(true)

	buf := &bytes.Buffer{}
	lg.SetOutput(buf)
	lg.Info("still json")
	assert.True(t, json.Valid(buf.Bytes()))
}
