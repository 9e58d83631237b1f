package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/avrogen/internal/app"
)

func graftProvider(ctx context.Context) (*app.Components, error) {
	c, _, err := graft.ExecuteFor[*app.Components](ctx)
	return c, err
}

func TestRun_Generate(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "schemas"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "schemas", "user.avsc"),
		[]byte(`{"type":"record","name":"User","namespace":"org.app","fields":[{"name":"id","type":"long"}]}`), 0o600))
	configPath := filepath.Join(root, "avrogen.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("sourceDirs: [schemas]\ndestination: gen\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"generate", "-c", configPath}, &stdout, &stderr, graftProvider)
	assert.Equal(t, 0, code, stderr.String())
	assert.FileExists(t, filepath.Join(root, "gen", "org", "app", "user.go"))
	assert.Contains(t, stdout.String(), "Generated 1 file from 1 directory")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"version"}, &stdout, &stderr, graftProvider)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "avrogen version")
}

func TestRun_ProviderError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"generate"}, &stdout, &stderr, func(context.Context) (*app.Components, error) {
		return nil, errors.New("wiring failed")
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error: wiring failed")
}
