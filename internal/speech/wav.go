package speech

import "encoding/binary"

// wrapWAV prefixes raw little-endian PCM with a canonical 44-byte RIFF/WAVE
// header so players can consume the buffer directly.
func wrapWAV(pcm []byte, sampleRate, bits, chans int) []byte {
	byteRate := sampleRate * chans * bits / 8
	blockAlign := chans * bits / 8
	dataLen := len(pcm)

	out := make([]byte, 0, 44+dataLen)
	le := binary.LittleEndian

	u32 := func(v uint32) []byte {
		b := make([]byte, 4)
		le.PutUint32(b, v)
		return b
	}
	u16 := func(v uint16) []byte {
		b := make([]byte, 2)
		le.PutUint16(b, v)
		return b
	}

	out = append(out, "RIFF"...)
	out = append(out, u32(uint32(36+dataLen))...)
	out = append(out, "WAVE"...)
	out = append(out, "fmt "...)
	out = append(out, u32(16)...)             // PCM chunk size
	out = append(out, u16(1)...)              // PCM format
	out = append(out, u16(uint16(chans))...)
	out = append(out, u32(uint32(sampleRate))...)
	out = append(out, u32(uint32(byteRate))...)
	out = append(out, u16(uint16(blockAlign))...)
	out = append(out, u16(uint16(bits))...)
	out = append(out, "data"...)
	out = append(out, u32(uint32(dataLen))...)
	out = append(out, pcm...)
	return out
}
