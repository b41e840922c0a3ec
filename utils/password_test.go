package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CheckPassword(hash, "secret123"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestSanitizeStripsScripts(t *testing.T) {
	out := Sanitize(`<script>alert(1)</script><a href="https://example.com">link</a>`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "link")
}

func TestUniqueUint(t *testing.T) {
	assert.Equal(t, []uint{1, 2, 3}, UniqueUint([]uint{1, 2, 2, 3, 1}))
	assert.Empty(t, UniqueUint(nil))
}
