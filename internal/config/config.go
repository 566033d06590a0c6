package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-sclass/pkg/filter"
)

// Format is an output format
type Format string

const (
	FormatMermaid  Format = "mmd"
	FormatSVG      Format = "svg"
	FormatPNG      Format = "png"
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "md"
)

// Formats lists every supported output format.
var Formats = []Format{FormatMermaid, FormatSVG, FormatPNG, FormatPDF, FormatMarkdown}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Theme is a Mermaid rendering theme
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeForest  Theme = "forest"
	ThemeDark    Theme = "dark"
	ThemeNeutral Theme = "neutral"
)

// Themes lists every supported theme.
var Themes = []Theme{ThemeDefault, ThemeForest, ThemeDark, ThemeNeutral}

// Valid reports whether t is a supported theme.
func (t Theme) Valid() bool {
	for _, known := range Themes {
		if t == known {
			return true
		}
	}
	return false
}

// OutputConfig controls where and how a diagram is written
type OutputConfig struct {
	// Path of the output file; empty writes mmd to stdout and other
	// formats next to the input.
	Path   string `yaml:"path" env:"SCLASS_OUTPUT"`
	Format Format `yaml:"format" env:"SCLASS_FORMAT"`
	Theme  Theme  `yaml:"theme" env:"SCLASS_THEME"`
}

// Config holds all configuration for sclass
type Config struct {
	Exclude filter.Config `yaml:"exclude"`
	Output  OutputConfig  `yaml:"output"`

	// DisableFunctionParamType renders parameters by name only
	DisableFunctionParamType bool `yaml:"disable_function_param_type" env:"SCLASS_DISABLE_PARAM_TYPES"`

	// CollectionsDir holds extra <name>.json collections
	CollectionsDir string `yaml:"collections_dir" env:"SCLASS_COLLECTIONS_DIR"`

	// Diagram cache; an empty CacheDir disables it
	CacheDir  string `yaml:"cache_dir" env:"SCLASS_CACHE_DIR"`
	CacheSize int    `yaml:"cache_size" env:"SCLASS_CACHE_SIZE"`

	// Concurrency bounds files processed at once in directory mode
	Concurrency int `yaml:"concurrency" env:"SCLASS_CONCURRENCY"`

	// RenderTimeout bounds one mmdc invocation
	RenderTimeout time.Duration `yaml:"render_timeout" env:"SCLASS_RENDER_TIMEOUT"`

	// Logging
	Verbose bool `yaml:"verbose" env:"SCLASS_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Exclude: filter.Config{
			Contracts: filter.ContractRules{
				Collections: []string{},
				Contracts:   []string{},
				Exceptions:  []string{},
			},
			Functions: filter.FunctionRules{
				RegExps:    []string{},
				Exceptions: []string{},
			},
		},
		Output: OutputConfig{
			Format: FormatMermaid,
			Theme:  ThemeDefault,
		},
		CacheSize:     256,
		Concurrency:   4,
		RenderTimeout: 60 * time.Second,
	}
}

// GlobalConfigPath returns the global config file path (~/.sclass/config.yaml)
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".sclass", "config.yaml")
	}
	return filepath.Join(home, ".sclass", "config.yaml")
}

// ProjectConfigPath returns the project-level config file path (./.sclass/config.yaml)
func ProjectConfigPath() string {
	return filepath.Join(".sclass", "config.yaml")
}

// DefaultCacheDir returns ~/.sclass/cache, or "" when there is no home.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sclass", "cache")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables (including a .env file in the working directory)
// 2. Project-level config (./.sclass/config.yaml)
// 3. Global config (~/.sclass/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{GlobalConfigPath(), ProjectConfigPath()} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	// .env never overrides variables already set
	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies SCLASS_* environment variables to the config
func applyEnvOverrides(cfg *Config) error {
	var result *multierror.Error

	if v := os.Getenv("SCLASS_OUTPUT"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("SCLASS_FORMAT"); v != "" {
		cfg.Output.Format = Format(v)
	}
	if v := os.Getenv("SCLASS_THEME"); v != "" {
		cfg.Output.Theme = Theme(v)
	}
	if v := os.Getenv("SCLASS_COLLECTIONS_DIR"); v != "" {
		cfg.CollectionsDir = v
	}
	if v := os.Getenv("SCLASS_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("SCLASS_EXCLUDE_COLLECTIONS"); v != "" {
		cfg.Exclude.Contracts.Collections = splitList(v)
	}
	if v := os.Getenv("SCLASS_EXCLUDE_FUNCTIONS"); v != "" {
		cfg.Exclude.Functions.RegExps = splitList(v)
	}
	if v := os.Getenv("SCLASS_EXCLUDE_INTERFACES"); v != "" {
		cfg.Exclude.Contracts.Interfaces = parseBool(v)
	}
	if v := os.Getenv("SCLASS_EXCLUDE_LIBRARIES"); v != "" {
		cfg.Exclude.Contracts.Libraries = parseBool(v)
	}
	if v := os.Getenv("SCLASS_DISABLE_PARAM_TYPES"); v != "" {
		cfg.DisableFunctionParamType = parseBool(v)
	}
	if v := os.Getenv("SCLASS_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
	if v := os.Getenv("SCLASS_CACHE_SIZE"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheSize = i
		}
	}
	if v := os.Getenv("SCLASS_CONCURRENCY"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Concurrency = i
		}
	}
	if v := os.Getenv("SCLASS_RENDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("SCLASS_RENDER_TIMEOUT: %w", err))
		} else {
			cfg.RenderTimeout = d
		}
	}

	return result.ErrorOrNil()
}

// Validate reports every problem in the configuration at once
func (c *Config) Validate() error {
	var result *multierror.Error

	if !c.Output.Format.Valid() {
		result = multierror.Append(result, fmt.Errorf("invalid output format %q (must be one of %s)", c.Output.Format, joinFormats()))
	}
	if !c.Output.Theme.Valid() {
		result = multierror.Append(result, fmt.Errorf("invalid theme %q (must be one of %s)", c.Output.Theme, joinThemes()))
	}
	for _, expr := range c.Exclude.Functions.RegExps {
		if _, err := regexp.Compile(expr); err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid exclude.functions.regexps entry %q: %w", expr, err))
		}
	}
	if c.CacheSize < 0 {
		result = multierror.Append(result, fmt.Errorf("cache_size must be non-negative"))
	}
	if c.Concurrency < 0 {
		result = multierror.Append(result, fmt.Errorf("concurrency must be non-negative"))
	}
	if c.RenderTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("render_timeout must be non-negative"))
	}

	return result.ErrorOrNil()
}

// Fingerprint identifies the settings that change a rendered diagram, for
// use in cache keys.
func (c *Config) Fingerprint() string {
	data, err := yaml.Marshal(struct {
		Exclude           filter.Config `yaml:"exclude"`
		DisableParamTypes bool          `yaml:"disable_param_types"`
		CollectionsDir    string        `yaml:"collections_dir"`
	}{c.Exclude, c.DisableFunctionParamType, c.CollectionsDir})
	if err != nil {
		return ""
	}
	return string(data)
}

func joinFormats() string {
	names := make([]string, 0, len(Formats))
	for _, f := range Formats {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func joinThemes() string {
	names := make([]string, 0, len(Themes))
	for _, t := range Themes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// splitList splits a comma separated list, dropping empty items
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBool(s string) bool {
	return s == "true" || s == "1" || s == "yes"
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
