package utils

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLengthAndCharset(t *testing.T) {
	g := NewCodeGenerator(6)

	for i := 0; i < 50; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, ch := range code {
			assert.True(t, ch >= '0' && ch <= '9', "unexpected character %q in %q", ch, code)
		}
	}
}

func TestGenerateDeterministicSource(t *testing.T) {
	src := bytes.NewReader([]byte{0, 1, 2, 13, 24, 35})
	g := NewCodeGeneratorWithSource(6, src)

	code, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, "012345", code)
}

func TestGenerateRejectsBiasedBytes(t *testing.T) {
	// bytes 250..255 are skipped so the mod-10 fold stays uniform
	src := bytes.NewReader([]byte{250, 255, 251, 7, 8})
	g := NewCodeGeneratorWithSource(2, src)

	code, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, "78", code)
}

func TestGenerateDefaultsLength(t *testing.T) {
	g := NewCodeGenerator(0)
	assert.Equal(t, DefaultCodeLength, g.Length())

	code, err := g.Generate()
	require.NoError(t, err)
	assert.Len(t, code, DefaultCodeLength)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerateSourceError(t *testing.T) {
	g := NewCodeGeneratorWithSource(6, failingReader{})

	_, err := g.Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read random source")
}
