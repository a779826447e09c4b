package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		p, err := GeneratePassword(TemporaryPasswordLength)
		require.NoError(t, err)
		assert.Len(t, p, TemporaryPasswordLength)
		for _, r := range p {
			assert.True(t, strings.ContainsRune(passwordAlphabet, r), "unexpected rune %q", r)
		}
		seen[p] = true
	}
	assert.Greater(t, len(seen), 1)
	assert.NotContains(t, passwordAlphabet, "0")
	assert.NotContains(t, passwordAlphabet, "O")
	assert.NotContains(t, passwordAlphabet, "l")
}
