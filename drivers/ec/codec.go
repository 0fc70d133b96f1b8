package ec

import (
	"encoding/binary"
	"math"
)

// Floats travel as IEEE-754 single precision, least significant byte first.

func putFloat32(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

func float32At(src []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src))
}

func isNaN(v float32) bool { return v != v }

func nan32() float32 { return float32(math.NaN()) }

// toMS25 rescales a reading taken at tempC to its 25 °C equivalent.
func toMS25(mS, tempC, coef float32) float32 {
	return mS / (1 - coef*(tempC-25))
}
