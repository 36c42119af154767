package utils

import (
	"crypto/rand"
	"fmt"
	"io"
)

const DefaultCodeLength = 6

// CodeGenerator produces fixed-length numeric verification codes.
// The random source defaults to crypto/rand and is injectable so tests
// can run deterministic sequences without weakening production entropy.
type CodeGenerator struct {
	length int
	source io.Reader
}

func NewCodeGenerator(length int) *CodeGenerator {
	return NewCodeGeneratorWithSource(length, rand.Reader)
}

func NewCodeGeneratorWithSource(length int, source io.Reader) *CodeGenerator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	if source == nil {
		source = rand.Reader
	}
	return &CodeGenerator{length: length, source: source}
}

func (g *CodeGenerator) Length() int { return g.length }

// Generate returns a string of exactly the configured number of decimal
// digits, each drawn uniformly from 0-9.
func (g *CodeGenerator) Generate() (string, error) {
	digits := make([]byte, g.length)
	buf := make([]byte, 1)
	for i := 0; i < g.length; {
		if _, err := io.ReadFull(g.source, buf); err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		// reject 250..255 so the mod-10 fold stays uniform
		if buf[0] >= 250 {
			continue
		}
		digits[i] = '0' + buf[0]%10
		i++
	}
	return string(digits), nil
}
