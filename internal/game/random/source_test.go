package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCryptoSource_Bounds(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(26)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 26)
	}
}

func TestCryptoSource_PanicsOnBadN(t *testing.T) {
	src := NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
	assert.Panics(t, func() { src.Intn(-1) })
}

func TestSequenceSource(t *testing.T) {
	src := NewSequenceSource(3, 30, 7)

	assert.Equal(t, 3, src.Intn(10))
	assert.Equal(t, 0, src.Intn(10), "values wrap modulo n")
	assert.Equal(t, 7, src.Intn(10))
	assert.Panics(t, func() { src.Intn(10) }, "exhausted sequence panics")
}
