package pan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	assert.True(t, Valid("ABCDE1234F"))
	assert.True(t, Valid("ZZZZZ0000A"))

	assert.False(t, Valid(""))
	assert.False(t, Valid("ABCDE123F"), "3 digits instead of 4")
	assert.False(t, Valid("ABCDE12345F"), "5 digits")
	assert.False(t, Valid("abcde1234f"), "lowercase")
	assert.False(t, Valid("ABCD12345F"), "4 letters up front")
	assert.False(t, Valid("ABCDE1234FX"), "trailing junk")
	assert.False(t, Valid(" ABCDE1234F"), "leading space")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABCDE1234F", Normalize("  abcde1234f\n"))
	assert.Equal(t, "ABCDE1234F", Normalize("ABCDE1234F"))
}

func TestValidAccountNumber(t *testing.T) {
	assert.True(t, ValidAccountNumber("1234567890"))
	assert.True(t, ValidAccountNumber("123456"))
	assert.True(t, ValidAccountNumber("123456789012345678"))

	assert.False(t, ValidAccountNumber("12345"), "too short")
	assert.False(t, ValidAccountNumber("1234567890123456789"), "too long")
	assert.False(t, ValidAccountNumber("12345678AB"))
	assert.False(t, ValidAccountNumber(""))
}
