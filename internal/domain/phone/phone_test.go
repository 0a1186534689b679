package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ten digit national gets country code", "3065551234", "13065551234"},
		{"formatted national", "(306) 555-1234", "13065551234"},
		{"already has country code", "13065551234", "13065551234"},
		{"plus prefix stripped", "+1 306 555 1234", "13065551234"},
		{"international 00 prefix stripped", "00443065551234", "443065551234"},
		{"no digits", "call me", ""},
		{"empty", "", ""},
		{"short number kept as-is", "911", "911"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.input))
		})
	}
}

func TestFormatForWhatsApp(t *testing.T) {
	assert.Equal(t, "13065551234", FormatForWhatsApp("(306) 555-1234"))
}
