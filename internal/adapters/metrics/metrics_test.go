package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/avrogen/internal/adapters/metrics"
	"go.trai.ch/avrogen/internal/core/domain"
)

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New()

	m.CompilerInvoked(domain.FormatIDL)
	m.CompilerInvoked(domain.FormatIDL)
	m.CompilerInvoked(domain.FormatFlatSchema)
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.FileFailed(domain.FormatFlatSchema)

	expected := `
# HELP avrogen_cache_lookups_total Total number of source directory cache lookups
# TYPE avrogen_cache_lookups_total counter
avrogen_cache_lookups_total{result="hit"} 1
avrogen_cache_lookups_total{result="miss"} 2
# HELP avrogen_compiler_invocations_total Total number of format compiler invocations
# TYPE avrogen_compiler_invocations_total counter
avrogen_compiler_invocations_total{format="idl"} 2
avrogen_compiler_invocations_total{format="schema"} 1
# HELP avrogen_file_failures_total Total number of source files that failed to compile
# TYPE avrogen_file_failures_total counter
avrogen_file_failures_total{format="schema"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected)))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := metrics.New()
	m.CompilerInvoked(domain.FormatProtocol)

	path := filepath.Join(t.TempDir(), "nested", "avrogen.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `avrogen_compiler_invocations_total{format="protocol"} 1`)
}
