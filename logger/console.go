package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

func isConsole(format string) bool {
	f := strings.ToLower(format)
	return f == "console" || f == FormatPretty
}

// newConsoleLogger prints "15:04:05 [NEW][INF] message key:value", the
// bracketed prefix being the first three letters of the service name.
func newConsoleLogger(cfg *Config, serviceName string, out io.Writer) zerolog.Logger {
	prefix := ""
	if len(serviceName) >= 3 && serviceName != "default" {
		prefix = "[" + strings.ToUpper(serviceName[:3]) + "]"
		if !cfg.NoColor {
			prefix = "\033[34m" + prefix + "\033[0m"
		}
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    cfg.NoColor,
		FormatLevel: func(i interface{}) string {
			return prefix + levelTag(strings.ToUpper(fmt.Sprint(i)), cfg.NoColor)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprint(i) + ":"
		},
	})
}

var levelTags = map[string]struct{ tag, color string }{
	"DEBUG": {"DBG", "36"},
	"INFO":  {"INF", "32"},
	"WARN":  {"WRN", "33"},
	"ERROR": {"ERR", "31"},
	"FATAL": {"FTL", "35"},
}

func levelTag(lvl string, noColor bool) string {
	t, ok := levelTags[lvl]
	if !ok {
		return "[" + lvl + "]"
	}
	if noColor {
		return "[" + t.tag + "]"
	}
	return "\033[" + t.color + "m[" + t.tag + "]\033[0m"
}
