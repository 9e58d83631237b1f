package logger_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/avrogen/internal/adapters/logger"
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestCollectErrorEntries(t *testing.T) {
	parseErr := domain.NewParseError("schemas/order.avsc", errors.New("unknown type: org.common.Money"))

	tests := []struct {
		name         string
		err          error
		wantMessages []string
		wantMetadata []map[string]any
	}{
		{
			name:         "plain error",
			err:          os.ErrNotExist,
			wantMessages: []string{"file does not exist"},
			wantMetadata: []map[string]any{nil},
		},
		{
			name:         "parse error carries its file",
			err:          parseErr,
			wantMessages: []string{"schema parse failed: unknown type: org.common.Money"},
			wantMetadata: []map[string]any{{"file": "schemas/order.avsc"}},
		},
		{
			name:         "directory metadata merges into the same link",
			err:          zerr.With(parseErr, "source_dir", "schemas"),
			wantMessages: []string{"schema parse failed: unknown type: org.common.Money"},
			wantMetadata: []map[string]any{{"file": "schemas/order.avsc", "source_dir": "schemas"}},
		},
		{
			name:         "wrapped import failure",
			err:          zerr.Wrap(parseErr, "failed to compile imports"),
			wantMessages: []string{"failed to compile imports", "schema parse failed: unknown type: org.common.Money"},
			wantMetadata: []map[string]any{{}, {"file": "schemas/order.avsc"}},
		},
		{
			name:         "namespace layout",
			err:          domain.NewNamespaceLayoutError("schemas/a.avsc", "com.acme", "schemas"),
			wantMessages: []string{"flat schema rejected", "namespace does not match directory layout"},
			wantMetadata: []map[string]any{
				{"file": "schemas/a.avsc", "namespace": "com.acme", "directory": "schemas"},
				{},
			},
		},
		{
			name: "nil error",
			err:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := logger.CollectErrorEntries(tt.err)
			require.Len(t, entries, len(tt.wantMessages))
			for i, want := range tt.wantMessages {
				assert.Equal(t, want, entries[i].Message, "message at %d", i)
				assert.Equal(t, tt.wantMetadata[i], entries[i].Metadata, "metadata at %d", i)
			}
		})
	}
}

func TestFormatErrorEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "single entry",
			entries: []logger.ErrorEntry{{Message: "invalid configuration"}},
			want:    "Error: invalid configuration",
		},
		{
			name: "cause chain",
			entries: []logger.ErrorEntry{
				{Message: "failed to load configuration"},
				{Message: "invalid configuration"},
				{Message: "destination must be set"},
			},
			want: "Error: failed to load configuration\n\n  Caused by:\n    → invalid configuration\n    → destination must be set",
		},
		{
			name: "metadata is sorted under its link",
			entries: []logger.ErrorEntry{
				{Message: "flat schema rejected", Metadata: map[string]any{"namespace": "com.acme", "directory": "schemas"}},
				{Message: "namespace does not match directory layout", Metadata: map[string]any{"format": "schema"}},
			},
			want: "Error: flat schema rejected\n       directory: schemas\n       namespace: com.acme\n\n" +
				"  Caused by:\n    → namespace does not match directory layout\n      format: schema",
		},
		{
			name:    "multiline parser message",
			entries: []logger.ErrorEntry{{Message: "schema parse failed: line 3\nexpected '}'"}},
			want:    "Error: schema parse failed: line 3\n       expected '}'",
		},
		{
			name: "empty",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatErrorEntries(tt.entries))
		})
	}
}

func attrStrings(t *testing.T, attrs []any) map[string]string {
	t.Helper()
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		attr, ok := a.(slog.Attr)
		require.True(t, ok, "%T is not a slog.Attr", a)
		out[attr.Key] = attr.Value.String()
	}
	return out
}

func TestLiftLocation(t *testing.T) {
	t.Run("file and directory leave the metadata", func(t *testing.T) {
		entries := logger.CollectErrorEntries(zerr.With(
			domain.NewParseError("schemas/order.avsc", errors.New("unexpected EOF")), "source_dir", "schemas"))

		attrs := logger.LiftLocation(entries)

		assert.Equal(t, map[string]string{"file": "schemas/order.avsc", "source_dir": "schemas"}, attrStrings(t, attrs))
		assert.Empty(t, entries[0].Metadata)
	})

	t.Run("innermost file wins", func(t *testing.T) {
		entries := []logger.ErrorEntry{
			{Message: "idl import failed", Metadata: map[string]any{"file": "schemas/service.avdl"}},
			{Message: "schema parse failed", Metadata: map[string]any{"file": "schemas/money.avsc", "field": "cents"}},
		}

		attrs := logger.LiftLocation(entries)

		assert.Equal(t, map[string]string{"file": "schemas/money.avsc"}, attrStrings(t, attrs))
		assert.Empty(t, entries[0].Metadata)
		assert.Equal(t, map[string]any{"field": "cents"}, entries[1].Metadata)
	})

	t.Run("no location", func(t *testing.T) {
		entries := logger.CollectErrorEntries(zerr.With(domain.ErrInvalidConfig, "path", "avrogen.yaml"))
		assert.Nil(t, logger.LiftLocation(entries))
		assert.Equal(t, map[string]any{"path": "avrogen.yaml"}, entries[0].Metadata)
	})
}
