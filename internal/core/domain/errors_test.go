package domain_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestNewParseError(t *testing.T) {
	cause := errors.New("unexpected token")
	err := domain.NewParseError("a/b.avdl", cause)

	assert.ErrorIs(t, err, domain.ErrParse)
	assert.ErrorIs(t, err, cause)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "a/b.avdl", zErr.Metadata()["file"])
}

func TestNewIOError(t *testing.T) {
	err := domain.NewIOError("x.avsc", fs.ErrPermission)
	assert.ErrorIs(t, err, domain.ErrIO)
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestNewNamespaceLayoutError(t *testing.T) {
	err := domain.NewNamespaceLayoutError("src/com/x/A.avsc", "com.y", "src/com/x")
	assert.ErrorIs(t, err, domain.ErrNamespaceLayout)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	meta := zErr.Metadata()
	assert.Equal(t, "com.y", meta["namespace"])
	assert.Equal(t, "src/com/x", meta["directory"])
}
