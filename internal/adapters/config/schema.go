package config

// Avrogenfile represents the structure of the avrogen.yaml configuration file.
// Optional scalars are pointers so that an absent key keeps its default.
type Avrogenfile struct {
	Version                  string   `yaml:"version"`
	SourceDirs               []string `yaml:"sourceDirs"`
	Destination              string   `yaml:"destination"`
	Imports                  []string `yaml:"imports"`
	CacheDir                 string   `yaml:"cacheDir"`
	Staleness                string   `yaml:"staleness"`
	Parallelism              int      `yaml:"parallelism"`
	MetricsFile              string   `yaml:"metricsFile"`
	StringType               string   `yaml:"stringType"`
	FieldVisibility          string   `yaml:"fieldVisibility"`
	EnableDecimalLogicalType *bool    `yaml:"enableDecimalLogicalType"`
	UseNamespace             *bool    `yaml:"useNamespace"`
	GoImportPath             string   `yaml:"goImportPath"`
	DefaultPackage           string   `yaml:"defaultPackage"`
	ValidateNames            bool     `yaml:"validateNames"`
	ValidateDefaults         bool     `yaml:"validateDefaults"`
}
