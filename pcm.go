package modcore

import "encoding/binary"

// AppendLittleEndian appends each sample in samples to dst as a little
// endian s16, regardless of host byte order, and returns the extended
// slice. Callers that need raw output bytes (rather than a native []int16,
// e.g. for network streaming) use this instead of reaching for encoding/
// binary themselves, keeping the little-endian output guarantee in one
// place.
func AppendLittleEndian(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}
