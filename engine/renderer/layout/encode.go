package layout

import (
	"encoding/binary"
	stdmath "math"

	"github.com/spaghettifunk/gef/engine/math"
)

// EncodeFloats packs values as consecutive little endian float32s.
func EncodeFloats(values ...float32) []byte {
	out := make([]byte, len(values)*4)
	for i, f := range values {
		binary.LittleEndian.PutUint32(out[i*4:], stdmath.Float32bits(f))
	}
	return out
}

// EncodeMat4 packs the 16 elements of m in storage order.
func EncodeMat4(m math.Mat4) []byte {
	return EncodeFloats(m.Data[:]...)
}

func EncodeMat4s(ms []math.Mat4) []byte {
	out := make([]byte, 0, len(ms)*64)
	for _, m := range ms {
		out = append(out, EncodeMat4(m)...)
	}
	return out
}

// DecodeFloat reads the float32 stored at offset.
func DecodeFloat(data []byte, offset int) float32 {
	return stdmath.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
}

func DecodeVec4(data []byte, offset int) math.Vec4 {
	return math.NewVec4(DecodeFloat(data, offset), DecodeFloat(data, offset+4), DecodeFloat(data, offset+8), DecodeFloat(data, offset+12))
}

func DecodeMat4(data []byte, offset int) math.Mat4 {
	var m math.Mat4
	for i := range m.Data {
		m.Data[i] = DecodeFloat(data, offset+i*4)
	}
	return m
}
