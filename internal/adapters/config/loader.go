// Package config provides the configuration loader for avrogen.
package config

import (
	"errors"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*FileConfigLoader)(nil)

// FileConfigLoader implements ports.ConfigLoader using a YAML file.
type FileConfigLoader struct {
	Filename string
	logger   ports.Logger
}

// NewLoader creates a loader looking for avrogen.yaml.
func NewLoader(logger ports.Logger) *FileConfigLoader {
	return &FileConfigLoader{Filename: domain.DefaultConfigFile, logger: logger}
}

// Load reads the configuration. An empty path searches for the configuration
// file from the working directory upwards.
func (l *FileConfigLoader) Load(path string) (*domain.Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to get working directory")
		}
		found, err := l.Discover(cwd)
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg, warnings, err := Load(path)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		l.logger.Warn(w)
	}
	return cfg, nil
}

// Discover walks from dir towards the filesystem root and returns the first configuration file found.
func (l *FileConfigLoader) Discover(dir string) (string, error) {
	current := filepath.Clean(dir)
	for {
		candidate := filepath.Join(current, l.Filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no "+l.Filename+" in any parent directory"), "search_start", dir)
		}
		current = parent
	}
}

// Load reads the configuration file at path, applies defaults and validates it.
// Relative paths are resolved against the directory holding the file. The returned
// warnings describe settings that were ignored or adjusted.
func Load(path string) (*domain.Config, []string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "failed to read config file"), "path", path)
		}
		return nil, nil, zerr.Wrap(err, "failed to read config file")
	}

	var file Avrogenfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, err.Error()), "path", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to resolve config path")
	}
	return build(&file, filepath.Dir(absPath))
}

func build(file *Avrogenfile, root string) (*domain.Config, []string, error) {
	cfg := domain.DefaultConfig()
	cfg.Root = root
	var warnings []string

	if len(file.SourceDirs) == 0 {
		return nil, nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "no source directories"), "key", "sourceDirs")
	}
	if file.Destination == "" {
		return nil, nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "no destination"), "key", "destination")
	}

	cfg.SourceDirs = canonicalizePaths(root, file.SourceDirs)
	cfg.Destination = resolve(root, file.Destination)
	for _, dir := range cfg.SourceDirs {
		if dir == cfg.Destination {
			return nil, nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "destination is a source directory"), "path", dir)
		}
	}

	cfg.Imports = slices.Clone(file.Imports)
	if file.CacheDir != "" {
		cfg.CacheDir = file.CacheDir
	}
	cfg.CacheDir = resolve(root, cfg.CacheDir)
	if file.MetricsFile != "" {
		cfg.MetricsFile = resolve(root, file.MetricsFile)
	}

	switch domain.StalenessMode(strings.ToLower(file.Staleness)) {
	case "", domain.StalenessMtime:
		cfg.Staleness = domain.StalenessMtime
	case domain.StalenessContent:
		cfg.Staleness = domain.StalenessContent
	default:
		return nil, nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "unknown staleness mode"), "staleness", file.Staleness)
	}

	if file.Parallelism > 0 {
		cfg.Parallelism = file.Parallelism
	} else if file.Parallelism < 0 {
		warnings = append(warnings, "parallelism must be positive, using the number of CPUs")
	}

	opts, err := buildOptions(file)
	if err != nil {
		return nil, nil, err
	}
	cfg.Options = opts

	cfg.Flags = domain.RegistryFlags{
		ValidateNames:    file.ValidateNames,
		ValidateDefaults: file.ValidateDefaults,
	}

	return &cfg, warnings, nil
}

func buildOptions(file *Avrogenfile) (domain.CompileOptions, error) {
	opts := domain.DefaultCompileOptions()

	stringType, err := domain.ParseStringType(file.StringType)
	if err != nil {
		return opts, err
	}
	opts.StringType = stringType

	visibility, err := domain.ParseFieldVisibility(file.FieldVisibility)
	if err != nil {
		return opts, err
	}
	opts.FieldVisibility = visibility

	if file.EnableDecimalLogicalType != nil {
		opts.EnableDecimalLogicalType = *file.EnableDecimalLogicalType
	}
	if file.UseNamespace != nil {
		opts.UseNamespace = *file.UseNamespace
	}
	opts.GoImportPath = strings.TrimSuffix(file.GoImportPath, "/")

	if file.DefaultPackage != "" {
		if !token.IsIdentifier(file.DefaultPackage) {
			return opts, zerr.With(zerr.Wrap(domain.ErrInvalidOption, "default package is not a Go identifier"), "defaultPackage", file.DefaultPackage)
		}
		opts.DefaultPackage = file.DefaultPackage
	}

	return opts, nil
}

// canonicalizePaths resolves, sorts and de-duplicates directory paths.
func canonicalizePaths(root string, paths []string) []string {
	resolved := make([]string, len(paths))
	for i, p := range paths {
		resolved[i] = resolve(root, p)
	}
	slices.Sort(resolved)
	return slices.Compact(resolved)
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}
