package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRequestNumber(t *testing.T) {
	cases := []struct {
		name string
		seq  int64
		want string
	}{
		{"padded", 7, "DDV2500007"},
		{"three digits", 123, "DDV2500123"},
		{"widens past five digits", 100000, "DDV25100000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatRequestNumber("DDV", 2025, tc.seq))
		})
	}
}

func TestQuotationAndRequestNumbersNeverCollide(t *testing.T) {
	assert.Equal(t, "DV2025-000123", FormatQuotationNumber(2025, 123))
	assert.NotEqual(t, FormatQuotationNumber(2025, 123), FormatRequestNumber("DDV", 2025, 123))
	assert.Equal(t, "R2500042", FormatReclamationNumber(2025, 42))
	assert.Equal(t, "quote:2025", ScopeKey(FamilyQuotation, 2025))
}

func TestLooksLikeRequestNumber(t *testing.T) {
	assert.True(t, LooksLikeRequestNumber("DDV", "ddv2500001"))
	assert.True(t, LooksLikeRequestNumber("", "DDV2500001"))
	assert.False(t, LooksLikeRequestNumber("DDV", "DDV"))
	assert.False(t, LooksLikeRequestNumber("DDV", "DV2025-000001"))
}
