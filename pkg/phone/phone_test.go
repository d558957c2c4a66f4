package phone

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		region string
		want   string
	}{
		{"already e164", "+15125550100", "", "+15125550100"},
		{"us national with punctuation", "(512) 555-0100", "", "+15125550100"},
		{"us with dashes", "512-555-0100", "US", "+15125550100"},
		{"uk national", "020 7946 0958", "GB", "+442079460958"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input, tt.region)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "12"} {
		t.Run(input, func(t *testing.T) {
			_, err := Normalize(input, "US")
			assert.True(t, errors.Is(err, ErrInvalidPhoneNumber))
		})
	}
}

func TestMask(t *testing.T) {
	assert.Equal(t, "********0100", Mask("+15125550100"))
	assert.Equal(t, "***", Mask("123"))
}
