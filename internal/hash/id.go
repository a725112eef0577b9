package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// CurveID computes the xxHash64 of a curve key: plot and curve joined by a NUL
// byte, which cannot appear in either name on the wire.
func CurveID(plot, curve string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(plot)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(curve)

	return d.Sum64()
}

// Checksum computes the xxHash64 of a frame.
func Checksum(frame []byte) uint64 {
	return xxhash.Sum64(frame)
}
