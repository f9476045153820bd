package codes

import (
	"math/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordPairGenerator_Generate(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z]+-[a-z]+$`)
	generator := NewWordPairGenerator(rand.New(rand.NewSource(5)))

	for i := 0; i < 100; i++ {
		code := generator.Generate()
		require.Regexp(t, pattern, code)

		parts := regexp.MustCompile(`-`).Split(code, -1)
		require.Len(t, parts, 2)
		assert.NotEqual(t, parts[0], parts[1], "code repeats a word: %s", code)
	}
}

func TestWordPairGenerator_Deterministic(t *testing.T) {
	first := NewWordPairGenerator(rand.New(rand.NewSource(9)))
	second := NewWordPairGenerator(rand.New(rand.NewSource(9)))

	for i := 0; i < 10; i++ {
		assert.Equal(t, first.Generate(), second.Generate())
	}
}
