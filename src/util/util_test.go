package util

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("bee@example.com"))
	assert.False(t, ValidateEmail("bee@"))
	assert.False(t, ValidateEmail("not an email"))
	assert.Equal(t, "bee@example.com", NormalizeEmail("  Bee@Example.COM "))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Str0ng!pass", true},
		{"short1!", false},
		{"alllowercase1!", false},
		{"ALLUPPERCASE1!", false},
		{"NoDigits!!", false},
		{"NoSpecial123", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, ValidatePassword(tt.password), tt.password)
	}
}

func TestValidateName(t *testing.T) {
	assert.True(t, ValidateName("Jo"))
	assert.True(t, ValidateName("Zoë"))
	assert.False(t, ValidateName(" J "))
	assert.False(t, ValidateName(""))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1234), ToMinorUnits(decimal.RequireFromString("12.34")))
	assert.Equal(t, int64(-1235), ToMinorUnits(decimal.RequireFromString("-12.345")))
	assert.Equal(t, int64(1999), FloatToMinorUnits(19.99))
	assert.Equal(t, int64(10), FloatToMinorUnits(0.1))

	cents, err := RatToMinorUnits(big.NewRat(-4321, 100))
	require.NoError(t, err)
	assert.Equal(t, int64(-4321), cents)

	assert.Equal(t, "12.34", FormatMinorUnits(1234))
	assert.Equal(t, "-0.05", FormatMinorUnits(-5))
}
