package domain

import "runtime"

// StalenessMode selects how the incremental cache detects changed inputs.
type StalenessMode string

const (
	// StalenessMtime compares modification times only.
	StalenessMtime StalenessMode = "mtime"
	// StalenessContent additionally compares content digests.
	StalenessContent StalenessMode = "content"
)

// DefaultConfigFile is the configuration file name looked up in the working directory.
const DefaultConfigFile = "avrogen.yaml"

// DefaultCacheDir is the cache store location relative to the working directory.
const DefaultCacheDir = ".avrogen/cache"

// Config is the resolved build configuration.
type Config struct {
	// Root is the directory relative paths are resolved against.
	Root        string
	SourceDirs  []string
	Destination string
	// Imports are glob patterns of flat schemas published to the registry before compilation.
	Imports     []string
	CacheDir    string
	Staleness   StalenessMode
	Parallelism int
	MetricsFile string
	Options     CompileOptions
	Flags       RegistryFlags
}

// RegistryFlags are the validation flags carried by the type registry.
type RegistryFlags struct {
	ValidateNames    bool
	ValidateDefaults bool
}

// DefaultConfig returns a configuration with every optional field set to its default.
func DefaultConfig() Config {
	return Config{
		CacheDir:    DefaultCacheDir,
		Staleness:   StalenessMtime,
		Parallelism: runtime.GOMAXPROCS(0),
		Options:     DefaultCompileOptions(),
	}
}
