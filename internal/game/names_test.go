package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "jose", NormalizeName("  José "))
	assert.Equal(t, "alice", NormalizeName("ALICE"))
	assert.Equal(t, NormalizeName("Señor"), NormalizeName("senor"))
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Alice"))
	assert.ErrorIs(t, ValidateName(""), ErrInvalidName)
	assert.ErrorIs(t, ValidateName("   "), ErrInvalidName)
	assert.ErrorIs(t, ValidateName(strings.Repeat("x", 25)), ErrInvalidName)
}
