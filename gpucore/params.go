package gpucore

import (
	"encoding/binary"
	"math"
)

// ParamsSize is the size of the packed parameter block in bytes.
const ParamsSize = 48

// Params is the grading parameter block.
// Must match GradeParams in grade.wgsl.
type Params struct {
	// Tone holds contrast, brightness, exposure and saturation in [-1, 1]
	// times their gain.
	Tone [4]float32

	// ColorGain holds the red, green and blue gains in [-1, 1]; the
	// fourth component is unused and packs as -1.
	ColorGain [4]float32

	// Detail holds highlights, shadows and vibrance scaled by their gain;
	// the fourth component is unused.
	Detail [4]float32
}

// Bytes packs p as little-endian float32 rows for upload.
func (p *Params) Bytes() []byte {
	out := make([]byte, ParamsSize)
	p.Put(out)
	return out
}

// Put writes the packed block into dst, which must hold ParamsSize bytes.
func (p *Params) Put(dst []byte) {
	_ = dst[ParamsSize-1]
	for row, v := range [3][4]float32{p.Tone, p.ColorGain, p.Detail} {
		for i, f := range v {
			binary.LittleEndian.PutUint32(dst[row*16+i*4:], math.Float32bits(f))
		}
	}
}

// ParamsFromBytes unpacks a block produced by Bytes.
func ParamsFromBytes(b []byte) (Params, bool) {
	var p Params
	if len(b) < ParamsSize {
		return p, false
	}
	rows := [3]*[4]float32{&p.Tone, &p.ColorGain, &p.Detail}
	for row, v := range rows {
		for i := range v {
			v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[row*16+i*4:]))
		}
	}
	return p, true
}
