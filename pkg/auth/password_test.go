package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("s3cure-pass!")
	require.NoError(t, err)
	require.NotEqual(t, "s3cure-pass!", hash)

	assert.NoError(t, ComparePassword(hash, "s3cure-pass!"))
	assert.Error(t, ComparePassword(hash, "wrong-pass"))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}
