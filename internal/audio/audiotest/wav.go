// Package audiotest builds audio fixtures for tests.
package audiotest

import (
	"bytes"
	"encoding/binary"
)

// PCMWav returns a canonical 44-byte-header WAV carrying the given samples.
func PCMWav(sampleRate uint32, bitsPerSample, channels uint16, samples []byte) []byte {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * uint32(blockAlign)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(samples)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, channels)
	_ = binary.Write(&buf, binary.LittleEndian, sampleRate)
	_ = binary.Write(&buf, binary.LittleEndian, byteRate)
	_ = binary.Write(&buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(&buf, binary.LittleEndian, bitsPerSample)

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(samples)))
	buf.Write(samples)
	return buf.Bytes()
}

// SilentWav returns one second of 16 kHz/16-bit/mono silence.
func SilentWav() []byte {
	return PCMWav(16000, 16, 1, make([]byte, 32000))
}
