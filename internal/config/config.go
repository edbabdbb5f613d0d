// Package config loads the optional jellos.yaml project file and
// bridges it to manager and provider settings.
//
// A missing file is not an error: every field has a built-in default,
// so the zero configuration is fully usable. When the file exists it
// is validated against an embedded JSON schema before binding, so a
// misspelled field fails loudly instead of silently falling back to
// its default.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
	"github.com/dev-jelly/jellos-sub002/internal/logging"
	"github.com/dev-jelly/jellos-sub002/internal/manager"
	"github.com/dev-jelly/jellos-sub002/internal/providers"
	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

// DefaultFileName is where Load looks when no path is given.
const DefaultFileName = "jellos.yaml"

// DefaultEnvFile is the environment file used when the configuration
// does not name one.
const DefaultEnvFile = ".env"

//go:embed schema.json
var schemaJSON string

// Config holds the runtime configuration.
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition

	// Namespace overrides the configured default namespace for one
	// invocation. Set from the --namespace flag, never from the file.
	Namespace string
}

// Definition is the parsed jellos.yaml document.
type Definition struct {
	DefaultNamespace string         `yaml:"defaultNamespace"`
	StrictMissing    bool           `yaml:"strictMissing"`
	EnvFile          string         `yaml:"envFile"`
	Cache            Cache          `yaml:"cache"`
	Priorities       map[string]int `yaml:"priorities"`
	Providers        Providers      `yaml:"providers"`
}

// Cache controls the manager's value cache.
type Cache struct {
	// Enabled is a pointer so an absent field keeps the cache on.
	Enabled        *bool `yaml:"enabled"`
	TimeoutSeconds int   `yaml:"timeoutSeconds"`
}

// IsEnabled reports whether caching is on. It is on unless the file
// says otherwise.
func (c Cache) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Providers carries the per-variant settings the file can adjust.
type Providers struct {
	CLIVault CLIVault `yaml:"cliVault"`
}

// CLIVault configures the password-manager CLI variant.
type CLIVault struct {
	Binary string `yaml:"binary"`
}

// Load reads and parses the file at c.Path (DefaultFileName when
// empty). A missing file applies the built-in defaults.
func (c *Config) Load() error {
	if c.Path == "" {
		c.Path = DefaultFileName
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			if c.Logger != nil {
				c.Logger.Debug("no %s found, using built-in defaults", c.Path)
			}
			c.Definition = DefaultDefinition()
			return nil
		}
		return jerrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	def, err := Parse(data)
	if err != nil {
		return err
	}
	c.Definition = def
	return nil
}

// Parse validates data against the embedded schema and binds it.
func Parse(data []byte) (*Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, jerrors.ConfigError{
			Message:    "invalid YAML in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
		}
	}
	if raw == nil {
		// An empty file is the same as no file.
		return DefaultDefinition(), nil
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, jerrors.ConfigError{
			Message:    "configuration fields have the wrong types",
			Suggestion: "Compare your jellos.yaml against the documented fields",
		}
	}
	applyDefaults(&def)
	return &def, nil
}

// validateSchema checks the raw document against the embedded JSON
// schema. YAML is converted to JSON first; the schema catches unknown
// fields and wrong types that binding alone would silently drop.
func validateSchema(raw map[string]any) error {
	doc, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encoding configuration for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return jerrors.ConfigError{
		Message:    "invalid configuration:\n  - " + strings.Join(msgs, "\n  - "),
		Suggestion: "Valid fields are defaultNamespace, strictMissing, envFile, cache, priorities, and providers",
	}
}

// DefaultDefinition returns the configuration used when no file exists.
func DefaultDefinition() *Definition {
	def := &Definition{}
	applyDefaults(def)
	return def
}

func applyDefaults(def *Definition) {
	if def.DefaultNamespace == "" {
		def.DefaultNamespace = manager.DefaultNamespace
	}
	if def.EnvFile == "" {
		def.EnvFile = DefaultEnvFile
	}
	if def.Cache.TimeoutSeconds <= 0 {
		def.Cache.TimeoutSeconds = int(manager.DefaultCacheTimeout / time.Second)
	}

	// User weights overlay the defaults, so naming one provider does
	// not unrank the others.
	merged := make(map[string]int)
	for typ, weight := range providers.DefaultPriorities() {
		merged[string(typ)] = weight
	}
	for name, weight := range def.Priorities {
		merged[name] = weight
	}
	def.Priorities = merged
}

// ManagerOptions converts the document into manager options.
func (d *Definition) ManagerOptions() manager.Options {
	priorities := make(map[provider.Type]int, len(d.Priorities))
	for name, weight := range d.Priorities {
		priorities[provider.Type(name)] = weight
	}

	return manager.Options{
		DefaultNamespace: d.DefaultNamespace,
		CacheDisabled:    !d.Cache.IsEnabled(),
		CacheTimeout:     time.Duration(d.Cache.TimeoutSeconds) * time.Second,
		StrictMissing:    d.StrictMissing,
		Priorities:       priorities,
	}
}

// ProviderConfig converts the per-provider block into the settings the
// provider registry understands.
func (d *Definition) ProviderConfig() providers.Config {
	return providers.Config{VaultBinary: d.Providers.CLIVault.Binary}
}
