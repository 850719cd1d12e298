package source

import (
	"encoding/binary"
	"math"
)

// SamplesFromFloat32LE converts little-endian float32 PCM bytes into
// samples. It returns the amount of samples written to dst; p must hold
// whole samples.
func SamplesFromFloat32LE(p []byte, dst []float64) int {
	n := len(p) / 4
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:])))
	}
	return n
}
