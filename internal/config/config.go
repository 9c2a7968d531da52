// Package config loads the optional bwlookup.yaml configuration file, which
// supplies defaults for lookup options so repeated invocations do not have to
// spell out scope and session settings every time.
package config

import (
	"os"

	bwerrors "github.com/systmms/bwlookup/internal/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no --config override is given.
const DefaultPath = "bwlookup.yaml"

// DefaultField is the item field fetched when neither the configuration nor
// the invocation names one.
const DefaultField = "password"

// Config holds the runtime configuration.
type Config struct {
	Path       string
	Definition *Definition
}

// Definition represents the bwlookup.yaml structure. Every field is a default
// that invocation options may override.
type Definition struct {
	// CLIPath overrides the bw executable resolved from PATH.
	CLIPath string `yaml:"cliPath,omitempty"`

	// Field is the item field fetched when an invocation names none.
	Field string `yaml:"field,omitempty"`

	// Organization and Collection scope lookups by default. Each is a
	// display name or an id.
	Organization string `yaml:"organization,omitempty"`
	Collection   string `yaml:"collection,omitempty"`

	// Output is the default directory attachments are written to.
	Output string `yaml:"output,omitempty"`

	// Sync refreshes the local vault cache before the first lookup.
	Sync bool `yaml:"sync,omitempty"`

	// SessionFrom selects where the session token comes from: "env" (the
	// BW_SESSION variable of an already-unlocked shell, the default) or
	// "keyring" (the OS credential store).
	SessionFrom string `yaml:"sessionFrom,omitempty"`

	// Keyring names the credential store entry holding the session token
	// when SessionFrom is "keyring".
	Keyring KeyringConfig `yaml:"keyring,omitempty"`
}

// KeyringConfig identifies a credential store entry.
type KeyringConfig struct {
	Service string `yaml:"service,omitempty"`
	Account string `yaml:"account,omitempty"`
}

// Load reads and parses the configuration file. A missing file is not an
// error: bwlookup works without one, so Load fills in an empty Definition and
// returns nil.
func (c *Config) Load() error {
	if c.Path == "" {
		c.Path = DefaultPath
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			c.Definition = &Definition{}
			return nil
		}
		return bwerrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return bwerrors.ConfigError{
			Field:      "path",
			Value:      c.Path,
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if err := def.validate(); err != nil {
		return err
	}

	c.Definition = &def
	return nil
}

func (d *Definition) validate() error {
	switch d.SessionFrom {
	case "", "env", "keyring":
	default:
		return bwerrors.ConfigError{
			Field:      "sessionFrom",
			Value:      d.SessionFrom,
			Message:    "unknown session source",
			Suggestion: "Use 'env' or 'keyring'",
		}
	}

	if d.SessionFrom == "keyring" && d.Keyring.Service == "" {
		return bwerrors.ConfigError{
			Field:      "keyring.service",
			Message:    "keyring session source requires a service name",
			Suggestion: "Set 'keyring.service' (and usually 'keyring.account') in bwlookup.yaml",
		}
	}

	return nil
}

// EffectiveField returns the configured default field, falling back to the
// built-in default.
func (d *Definition) EffectiveField() string {
	if d.Field != "" {
		return d.Field
	}
	return DefaultField
}
