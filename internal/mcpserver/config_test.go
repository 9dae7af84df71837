package mcpserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// clearRACEnv clears all RAC_MCP_* env vars to isolate tests from the ambient environment.
func clearRACEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RAC_MCP_LIST_LIMIT", "RAC_MCP_MAX_LIMIT",
		"RAC_MCP_INCLUDE_CLIENT", "RAC_MCP_FORMAT",
		"RAC_MCP_TOOL_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearRACEnv(t)

	c := loadConfig()

	assert.Equal(t, 200, c.ListLimit)
	assert.Equal(t, 1000, c.MaxLimit)
	assert.True(t, c.IncludeClient)
	assert.Equal(t, formatYAML, c.Format)
	assert.Equal(t, 30*time.Second, c.ToolTimeout)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearRACEnv(t)
	t.Setenv("RAC_MCP_LIST_LIMIT", "50")
	t.Setenv("RAC_MCP_MAX_LIMIT", "500")
	t.Setenv("RAC_MCP_INCLUDE_CLIENT", "false")
	t.Setenv("RAC_MCP_FORMAT", "JSON")
	t.Setenv("RAC_MCP_TOOL_TIMEOUT", "5s")

	c := loadConfig()

	assert.Equal(t, 50, c.ListLimit)
	assert.Equal(t, 500, c.MaxLimit)
	assert.False(t, c.IncludeClient)
	assert.Equal(t, formatJSON, c.Format)
	assert.Equal(t, 5*time.Second, c.ToolTimeout)
}

func TestLoadConfig_InvalidValues_UseDefaults(t *testing.T) {
	clearRACEnv(t)
	t.Setenv("RAC_MCP_LIST_LIMIT", "banana")
	t.Setenv("RAC_MCP_MAX_LIMIT", "-1")
	t.Setenv("RAC_MCP_INCLUDE_CLIENT", "maybe")
	t.Setenv("RAC_MCP_FORMAT", "xml")
	t.Setenv("RAC_MCP_TOOL_TIMEOUT", "soon")

	c := loadConfig()

	assert.Equal(t, 200, c.ListLimit)
	assert.Equal(t, 1000, c.MaxLimit)
	assert.True(t, c.IncludeClient)
	assert.Equal(t, formatYAML, c.Format)
	assert.Equal(t, 30*time.Second, c.ToolTimeout)
}
