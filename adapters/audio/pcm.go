package audio

import "encoding/binary"

// EncodePCM16 packs samples as signed 16-bit little-endian PCM
func EncodePCM16(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(sample))
	}
	return data
}

// encodeInts packs decoder samples, which are already 16-bit values held in
// ints, as little-endian PCM
func encodeInts(samples []int) []byte {
	data := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(sample)))
	}
	return data
}
