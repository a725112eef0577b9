// Package compress provides the block codecs used by capture files.
//
// Each capture record is compressed on its own, so every codec works on
// whole byte slices rather than streams:
//   - None: frames are stored as sent
//   - Zstd: best ratio, used for long recordings
//   - S2: fast with a good ratio, the default for live sessions
//   - LZ4: fastest to read back
//
// All codecs are safe for concurrent use. Encoders and decoders that are
// expensive to create are pooled.
package compress
