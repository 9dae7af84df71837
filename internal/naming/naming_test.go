package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpperID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"use_case", "USE_CASE"},
		{" copywriter ", "COPYWRITER"},
		{"CONFIG", "CONFIG"},
		{"ünïcode", "ÜNÏCODE"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, UpperID(tt.input))
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "uhu", Slug("UHU"))
	assert.Equal(t, "acme", Slug(" Acme"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "COREVALUES", Fold("core_values"))
	assert.Equal(t, Fold("CORE-VALUES"), Fold("CoreValues"))
	assert.NotEqual(t, Fold("CORE"), Fold("VALUES"))
}

func TestStripSeparators(t *testing.T) {
	assert.Equal(t, "CMEONLINE", StripSeparators("CME-ONLINE"))
	assert.Equal(t, "POONLINE", StripSeparators("PO_ONLINE"))
}
