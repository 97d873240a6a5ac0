// Package config loads skygen settings from skygen.yaml and command flags.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// DefaultFile is read from the working directory when no --config is given
const DefaultFile = "skygen.yaml"

// Config represents the complete configuration of a generation run
type Config struct {
	Spec   string `koanf:"spec"`
	Output string `koanf:"output"`
	// Format selects the emitter used for the bundle
	Format           string        `koanf:"format"`
	IncludeTags      []string      `koanf:"include-tags"`
	ExcludeTags      []string      `koanf:"exclude-tags"`
	SkipPlaceholders []string      `koanf:"skip-placeholders"`
	MaxDepth         int           `koanf:"max-depth"`
	Parallelism      int           `koanf:"parallelism"`
	Timeout          time.Duration `koanf:"timeout"`
	Project          Project       `koanf:"project"`
}

// Project holds the metadata handed to emitters alongside the IR
type Project struct {
	Name        string   `koanf:"name"`
	Version     string   `koanf:"version"`
	Description string   `koanf:"description"`
	Authors     []string `koanf:"authors"`
	Keywords    []string `koanf:"keywords"`
	APIURL      string   `koanf:"api-url"`
}

func defaults() map[string]any {
	return map[string]any{
		"format":      "json",
		"max-depth":   64,
		"parallelism": 1,
		"timeout":     "30s",
	}
}

// BindFlags binds the configuration flags to a command
func BindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: skygen.yaml)")
	flags.StringP("spec", "s", "", "OpenAPI document path or http(s) URL")
	flags.StringP("output", "o", "", "Output file (default: stdout)")
	flags.StringP("format", "f", "", "Output format: json, yaml")
	flags.StringSlice("include-tags", nil, "Tag patterns to include")
	flags.StringSlice("exclude-tags", nil, "Tag patterns to exclude")
	flags.StringSlice("skip-placeholders", nil, "Component names skipped in allOf/oneOf/anyOf")
	flags.Int("max-depth", 0, "Maximum reference chain depth (0 disables the limit)")
	flags.Int("parallelism", 0, "Number of models and modules synthesized concurrently")
	flags.Duration("timeout", 0, "Timeout for fetching the document")
	flags.String("project-name", "", "Project name")
	flags.String("project-version", "", "Project version")
}

// Load reads the config file (explicit, or skygen.yaml if present) and
// overlays the flags that were set on cmd.
func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	var configFile string
	if fs := flagSet(cmd, "config"); fs != nil {
		configFile, _ = fs.GetString("config")
	}
	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Spec = resolveSpecPath(cfg.Spec)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveSpecPath makes a local spec path absolute; URLs are kept as-is
func resolveSpecPath(spec string) string {
	if spec == "" || isRemote(spec) || filepath.IsAbs(spec) {
		return spec
	}
	if abs, err := filepath.Abs(spec); err == nil {
		return abs
	}
	return spec
}

func isRemote(spec string) bool {
	u, err := url.Parse(spec)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// flagSet returns the set defining name. Persistent flags only show up in
// Flags() once cobra has parsed the command line.
func flagSet(cmd *cobra.Command, name string) *pflag.FlagSet {
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
		if fs.Lookup(name) != nil {
			return fs
		}
	}
	return nil
}

// buildFlagsMap collects the flags set on the command line, keyed like the
// config file
func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)

	changed := func(name string) *pflag.FlagSet {
		fs := flagSet(cmd, name)
		if fs == nil || !fs.Changed(name) {
			return nil
		}
		return fs
	}

	for key, name := range map[string]string{
		"spec":            "spec",
		"output":          "output",
		"format":          "format",
		"project.name":    "project-name",
		"project.version": "project-version",
	} {
		if fs := changed(name); fs != nil {
			if v, err := fs.GetString(name); err == nil {
				m[key] = v
			}
		}
	}
	for _, name := range []string{"include-tags", "exclude-tags", "skip-placeholders"} {
		if fs := changed(name); fs != nil {
			if v, err := fs.GetStringSlice(name); err == nil {
				m[name] = v
			}
		}
	}
	for _, name := range []string{"max-depth", "parallelism"} {
		if fs := changed(name); fs != nil {
			if v, err := fs.GetInt(name); err == nil {
				m[name] = v
			}
		}
	}
	if fs := changed("timeout"); fs != nil {
		if v, err := fs.GetDuration("timeout"); err == nil {
			m["timeout"] = v.String()
		}
	}

	return m
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	if c.Spec == "" {
		return fmt.Errorf("spec file is required")
	}

	validFormats := map[string]bool{"json": true, "yaml": true}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid format: %s (valid: json, yaml)", c.Format)
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("max-depth must not be negative: %d", c.MaxDepth)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative: %d", c.Parallelism)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", c.Timeout)
	}

	if c.Project.APIURL != "" {
		u, err := url.Parse(c.Project.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid project api-url: %q", c.Project.APIURL)
		}
	}

	return nil
}
