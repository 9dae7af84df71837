package mcpserver

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// serverConfig holds the configurable MCP tool defaults. Loaded at startup
// from RAC_MCP_* environment variables via loadConfig().
type serverConfig struct {
	// Listing defaults.
	ListLimit int
	MaxLimit  int

	// Resolution defaults.
	IncludeClient bool
	Format        string

	// ToolTimeout bounds a single tool call.
	ToolTimeout time.Duration
}

// loadConfig reads configuration from RAC_MCP_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		ListLimit:     envInt("RAC_MCP_LIST_LIMIT", 200),
		MaxLimit:      envInt("RAC_MCP_MAX_LIMIT", 1000),
		IncludeClient: envBool("RAC_MCP_INCLUDE_CLIENT", true),
		Format:        envFormat("RAC_MCP_FORMAT", formatYAML),
		ToolTimeout:   envDuration("RAC_MCP_TOOL_TIMEOUT", 30*time.Second),
	}
}

// envValue parses key with parse, keeping fallback when the variable is unset
// or rejected.
func envValue[T any](key string, fallback T, parse func(string) (T, bool)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, ok := parse(raw)
	if !ok {
		slog.Warn("ignoring invalid RAC_MCP setting", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	return envValue(key, fallback, func(s string) (bool, bool) {
		b, err := strconv.ParseBool(s)
		return b, err == nil
	})
}

func envInt(key string, fallback int) int {
	return envValue(key, fallback, func(s string) (int, bool) {
		n, err := strconv.Atoi(s)
		return n, err == nil && n > 0
	})
}

func envFormat(key, fallback string) string {
	return envValue(key, fallback, func(s string) (string, bool) {
		s = strings.ToLower(s)
		return s, s == formatJSON || s == formatYAML
	})
}

func envDuration(key string, fallback time.Duration) time.Duration {
	return envValue(key, fallback, func(s string) (time.Duration, bool) {
		d, err := time.ParseDuration(s)
		return d, err == nil && d > 0
	})
}
