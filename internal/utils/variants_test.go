package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

func TestParseVariantArrays(t *testing.T) {
	variants, err := ParseVariantArrays(`["S","M"]`, "{9.999,12}", `{"","m.png"}`, "3, 0")
	require.NoError(t, err)
	assert.Equal(t, []domain.ProductVariant{
		{Name: "S", BasePrice: 10, Stock: 3},
		{Name: "M", BasePrice: 12, Image: "m.png", Stock: 0},
	}, variants)
}

func TestParseVariantArraysAllowsMissingColumns(t *testing.T) {
	variants, err := ParseVariantArrays("Red,Blue", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, []domain.ProductVariant{{Name: "Red"}, {Name: "Blue"}}, variants)

	variants, err = ParseVariantArrays("", "", "", "")
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestParseVariantArraysRejectsMismatchedLengths(t *testing.T) {
	_, err := ParseVariantArrays("S,M,L", "1,2", "", "")
	assert.ErrorIs(t, err, ErrVariantLengthMismatch)

	_, err = ParseVariantArrays("S", "", "", "1,2")
	assert.ErrorIs(t, err, ErrVariantLengthMismatch)
}
