// Package config loads service configuration and plugin options.
//
// Service configuration (ServiceConfig and whatever embeds it) is read with
// viper from config.yml, overlaid by a .env file and the process environment:
//
//	var cfg Config
//	err := config.LoadConfig("newsroom-api", &cfg)
//
// Plugin options are case-sensitive maps and are read with LoadOptions from
// YAML, TOML or JSON, with ${VAR} references expanded:
//
//	raw, err := config.LoadOptions(cfg.Auth.OptionsFile)
package config
