package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDocument(t *testing.T) {
	tests := map[string]string{
		"12.345.678/0001-95": "12345678000195",
		"123.456.789-01":     "12345678901",
		"  00000000000191 ":  "00000000000191",
		"abc":                "",
		"":                   "",
	}
	for raw, want := range tests {
		assert.Equal(t, want, NormalizeDocument(raw), raw)
	}
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("12345678000195"))
	assert.True(t, ValidFormat("12.345.678/0001-95"))
	assert.False(t, ValidFormat("123456789"))
	assert.False(t, ValidFormat("123456780001950"))
	assert.False(t, ValidFormat(""))
}
