package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNewFormatterRejectsUnknownCode(t *testing.T) {
	_, err := NewFormatter("XYZQ", language.English)
	require.Error(t, err)

	f, err := NewFormatter(" aed ", language.English)
	require.NoError(t, err)
	assert.Equal(t, "AED", f.Code())
}

func TestMoney(t *testing.T) {
	f, err := NewFormatter("AED", language.English)
	require.NoError(t, err)

	tests := []struct {
		amount   float64
		expected string
	}{
		{0, "AED 0.00"},
		{1234.5, "AED 1,234.50"},
		{1210000, "AED 1,210,000.00"},
		{-1234.567, "AED -1,234.57"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, f.Money(tt.amount))
	}
}

func TestPercentAndYears(t *testing.T) {
	f, err := NewFormatter("USD", language.English)
	require.NoError(t, err)

	assert.Equal(t, "5.26%", f.Percent(5.263157))
	assert.Equal(t, "19.0", f.Years(19, 999))
	assert.Equal(t, "never", f.Years(999, 999))
}
