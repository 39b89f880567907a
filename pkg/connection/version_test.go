package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVersion(t *testing.T) {
	version := ExtractVersion(map[string]any{"version": "3.8.2"})

	assert.Equal(t, BrokerVersion(0x030802), version)
	assert.Equal(t, uint8(3), version.Major())
	assert.Equal(t, uint8(8), version.Minor())
	assert.Equal(t, uint8(2), version.Patch())
	assert.Equal(t, "3.8.2", version.String())
}

func TestExtractVersionMalformed(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
	}{
		{"missing key", map[string]any{"product": "RabbitMQ"}},
		{"non-string value", map[string]any{"version": int32(382)}},
		{"two components", map[string]any{"version": "3.8"}},
		{"four components", map[string]any{"version": "3.8.2.1"}},
		{"non-numeric component", map[string]any{"version": "3.8.beta"}},
		{"empty string", map[string]any{"version": ""}},
		{"nil table", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, BrokerVersion(0), ExtractVersion(tt.props))
		})
	}
}

func TestExtractVersionTruncatesLargeComponents(t *testing.T) {
	// Components keep only their low byte: 999 = 0x3E7 -> 0xE7.
	version := ExtractVersion(map[string]any{"version": "1.999.0"})
	assert.Equal(t, uint8(1), version.Major())
	assert.Equal(t, uint8(0xE7), version.Minor())
	assert.Equal(t, uint8(0), version.Patch())
}
