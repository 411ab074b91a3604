package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/stubmatch/pkg/engine"
	"github.com/getmockd/stubmatch/pkg/logging"
	"github.com/getmockd/stubmatch/pkg/registry"
	"github.com/getmockd/stubmatch/pkg/stub"
)

// Config is a loaded mapping file with its includes resolved.
type Config struct {
	// Sources lists the files read, the main file first.
	Sources []string

	ConflictPolicy            registry.ConflictPolicy
	StrictExtensionReferences bool
	Logging                   LoggingSettings

	// Mappings are in file order: inline mappings, then each include
	// pattern's files in lexical order.
	Mappings []*stub.Mapping
}

// Load reads the mapping file at path and every file it includes.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := LoadBytes(data, filepath.Dir(absPath))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Sources = append([]string{absPath}, cfg.Sources...)
	return cfg, nil
}

// LoadBytes parses a mapping file held in memory. Include patterns are
// resolved against baseDir.
func LoadBytes(data []byte, baseDir string) (*Config, error) {
	var file File
	if err := decode(data, &file); err != nil {
		return nil, err
	}

	policy, err := registry.ParseConflictPolicy(file.Registry.ConflictPolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := logging.ConfigFromStrings(file.Logging.Level, file.Logging.Format, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := &Config{
		ConflictPolicy:            policy,
		StrictExtensionReferences: file.StrictExtensionReferences,
		Logging:                   file.Logging,
	}
	if err := cfg.addMappings("", file.Mappings); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, pattern := range file.Include {
		paths, err := expandGlob(ResolvePath(pattern, baseDir))
		if err != nil {
			return nil, fmt.Errorf("%w: include %q: %w", ErrInvalidConfig, pattern, err)
		}
		for _, p := range paths {
			if seen[p] {
				continue
			}
			seen[p] = true
			if err := cfg.include(p); err != nil {
				return nil, err
			}
		}
	}
	return cfg, nil
}

func (c *Config) include(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var list MappingList
	if err := decode(data, &list); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	c.Sources = append(c.Sources, path)
	return c.addMappings(path, list)
}

func (c *Config) addMappings(source string, specs []MappingSpec) error {
	for i := range specs {
		m, err := specs[i].ToMapping()
		if err != nil {
			label := specs[i].label(i)
			if source != "" {
				label = source + ": " + label
			}
			return fmt.Errorf("config: %s: %w", label, err)
		}
		c.Mappings = append(c.Mappings, m)
	}
	return nil
}

// decode expands environment references and parses one YAML document,
// rejecting unknown fields. An empty document is an error.
func decode(data []byte, out any) error {
	data = []byte(ExpandEnvVars(string(data)))
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty document", ErrInvalidConfig)
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// LoggingConfig returns the logging configuration writing to out.
func (c *Config) LoggingConfig(out io.Writer) (logging.Config, error) {
	return logging.ConfigFromStrings(c.Logging.Level, c.Logging.Format, out)
}

// RegistryOptions returns the registry options the file asks for.
func (c *Config) RegistryOptions() []registry.Option {
	return []registry.Option{registry.WithConflictPolicy(c.ConflictPolicy)}
}

// EngineOptions returns the engine options the file asks for.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{engine.WithStrictExtensionReferences(c.StrictExtensionReferences)}
}

// Apply adds every mapping to e in file order and returns the published
// copies. It stops at the first mapping e rejects.
func (c *Config) Apply(e *engine.Engine) ([]*stub.Mapping, error) {
	published := make([]*stub.Mapping, 0, len(c.Mappings))
	for _, m := range c.Mappings {
		stored, err := e.AddStubMapping(m)
		if err != nil {
			return published, fmt.Errorf("config: add mapping %s: %w", m.Label(), err)
		}
		published = append(published, stored)
	}
	return published, nil
}

// ResolvePath makes a relative path absolute against baseDir.
func ResolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

// expandGlob returns the files matching pattern in lexical order.
// Patterns containing ** are matched with doublestar.
func expandGlob(pattern string) ([]string, error) {
	var (
		matches []string
		err     error
	)
	if strings.Contains(pattern, "**") {
		matches, err = doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	} else {
		matches, err = filepath.Glob(pattern)
	}
	if err != nil {
		return nil, err
	}

	files := matches[:0]
	for _, m := range matches {
		if info, statErr := os.Stat(m); statErr == nil && !info.IsDir() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
// An unset variable without a default expands to the empty string.
func ExpandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(parts[1]); ok {
			return value
		}
		return parts[2]
	})
}
