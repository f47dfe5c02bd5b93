package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a plugin options file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("config: unsupported options file %q", path)
	}
}

// LoadOptions reads a plugin options file into a raw map. Keys keep their
// case; viper is not used here because it folds keys to lower case.
func LoadOptions(path string) (map[string]any, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read options: %w", err)
	}
	return DecodeOptions(data, format)
}

// DecodeOptions parses options data after expanding ${VAR} and
// ${VAR:-default} references from the environment. A bare $ is left alone.
func DecodeOptions(data []byte, format Format) (map[string]any, error) {
	src := []byte(ExpandEnv(string(data)))
	out := map[string]any{}

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(src, &out)
	case FormatTOML:
		err = toml.Unmarshal(src, &out)
	case FormatJSON:
		err = json.Unmarshal(src, &out)
	default:
		return nil, fmt.Errorf("config: unsupported options format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("config: decode %s options: %w", format, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return stringKeys(out).(map[string]any), nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} with the value of VAR and ${VAR:-default} with
// the value of VAR, or default when VAR is unset or empty.
func ExpandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if v := os.Getenv(m[1]); v != "" {
			return v
		}
		return m[2]
	})
}

// stringKeys converts YAML mappings with non-string keys (numeric tokens,
// for instance) into map[string]any, recursively.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = stringKeys(val)
		}
		return t
	default:
		return v
	}
}
