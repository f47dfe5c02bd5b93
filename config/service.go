package config

import (
	"fmt"
	"strings"

	"github.com/plan3/commonauth/errors"
	"github.com/plan3/commonauth/logger"
)

// Environments a service may run in.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig contains the fields every service built on this module
// needs. Services embed it in their own config structs:
//
//	type Config struct {
//	    config.ServiceConfig `mapstructure:",squash"`
//	    Server server.Config `mapstructure:"server"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
	Auth        AuthConfig    `yaml:"auth" mapstructure:"auth"`
}

// AuthConfig locates the options of the authentication plugin.
type AuthConfig struct {
	// OptionsFile is a YAML, TOML or JSON file read with LoadOptions.
	OptionsFile string `yaml:"options_file" mapstructure:"options_file"`
}

// GetServiceConfig returns the base ServiceConfig. It is promoted to
// embedding structs.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults applies default values to the base configuration.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base configuration fields.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return errors.MissingField("config.name")
	}
	found := false
	for _, v := range Environments {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return errors.InvalidFormat("config.environment", "one of "+strings.Join(Environments, ", ")).
			WithDetail("got", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
