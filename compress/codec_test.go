package compress

import (
	"bytes"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/format"
)

func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"Zstd": NewZstdCompressor(),
		"S2":   NewS2Compressor(),
		"LZ4":  NewLZ4Compressor(),
	}
}

// plotFrame mimics an update message: a short header followed by a slowly
// changing float payload.
func plotFrame(n int) []byte {
	frame := []byte{0xFF, 0x1D, 0x33, 0xF1, 0, 0, 0, 0, 'p', 0, 'c', 0}
	for i := range n {
		frame = append(frame, byte(i), byte(i>>8), 0x80, 0x3F)
	}

	return frame
}

func TestCreateCodec(t *testing.T) {
	tests := []struct {
		typ  format.CompressionType
		want Codec
	}{
		{format.CompressionNone, NewNoOpCompressor()},
		{format.CompressionZstd, NewZstdCompressor()},
		{format.CompressionS2, NewS2Compressor()},
		{format.CompressionLZ4, NewLZ4Compressor()},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			codec, err := CreateCodec(tt.typ, "capture")
			require.NoError(t, err)
			require.IsType(t, tt.want, codec)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, err := CreateCodec(format.CompressionType(0xEE), "capture")
		require.ErrorIs(t, err, errs.ErrInvalidCompression)
		require.Contains(t, err.Error(), "capture")
	})
}

func TestS2Compressor_RejectsOversizedBlock(t *testing.T) {
	// a block header claiming more than maxBlock decoded bytes
	data := binary.AppendUvarint(nil, uint64(maxBlock)+1)
	data = append(data, 0x00, 0x01, 0x02)

	_, err := NewS2Compressor().Decompress(data)
	require.ErrorIs(t, err, errs.ErrFrameTooLarge)

	frame := plotFrame(64)
	packed, err := NewS2Compressor().Compress(frame)
	require.NoError(t, err)
	require.Less(t, len(packed), len(frame))

	got, err := NewS2Compressor().Decompress(packed)
	require.NoError(t, err)
	require.Equal(t, frame, got)
}

func TestNoOpCompressor_Aliases(t *testing.T) {
	data := []byte("frame")
	c := NewNoOpCompressor()

	out, err := c.Compress(data)
	require.NoError(t, err)
	require.Same(t, &data[0], &out[0])

	back, err := c.Decompress(out)
	require.NoError(t, err)
	require.Equal(t, data, back)
}

func TestAllCodecs_EmptyData(t *testing.T) {
	for name, codec := range getAllCodecs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Empty(t, compressed)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, decompressed)
		})
	}
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "single_byte", data: []byte{0x42}},
		{name: "binary", data: []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD, 0xFC}},
		{name: "small_frame", data: plotFrame(4)},
		{name: "large_frame", data: plotFrame(16 << 10)},
		{name: "zeros", data: make([]byte, 1<<20)},
		{
			name: "semi_random",
			data: func() []byte {
				data := make([]byte, 4096)
				for i := range data {
					data[i] = byte((i*7 + i*i) % 251)
				}

				return data
			}(),
		},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					compressed, err := codec.Compress(tc.data)
					require.NoError(t, err)
					require.NotEmpty(t, compressed)

					decompressed, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.True(t, bytes.Equal(tc.data, decompressed))
				})
			}
		})
	}
}

func TestAllCodecs_InvalidData(t *testing.T) {
	invalid := [][]byte{
		{0xFF, 0xFF, 0xFF, 0xFF},
		[]byte("this is not compressed data"),
	}

	for codecName, codec := range getAllCodecs() {
		if codecName == "NoOp" {
			continue
		}

		t.Run(codecName, func(t *testing.T) {
			for _, data := range invalid {
				_, err := codec.Decompress(data)
				require.Error(t, err)
			}
		})
	}
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	data := plotFrame(512)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			var wg sync.WaitGroup
			errCh := make(chan error, 16)

			for range 16 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range 20 {
						compressed, err := codec.Compress(data)
						if err != nil {
							errCh <- err
							return
						}
						back, err := codec.Decompress(compressed)
						if err != nil {
							errCh <- err
							return
						}
						if !bytes.Equal(data, back) {
							errCh <- errs.ErrChecksum
							return
						}
					}
				}()
			}

			wg.Wait()
			close(errCh)
			for err := range errCh {
				require.NoError(t, err)
			}
		})
	}
}

func TestLZ4Compressor_LargeExpansion(t *testing.T) {
	// zeros compress far beyond the initial 4x guess
	data := make([]byte, 8<<20)
	c := NewLZ4Compressor()

	compressed, err := c.Compress(data)
	require.NoError(t, err)
	require.Less(t, len(compressed)*4, len(data))

	back, err := c.Decompress(compressed)
	require.NoError(t, err)
	require.Len(t, back, len(data))
}

func BenchmarkCodecs_Frame(b *testing.B) {
	data := plotFrame(4096)

	for name, codec := range getAllCodecs() {
		b.Run(name, func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for b.Loop() {
				compressed, _ := codec.Compress(data)
				_, _ = codec.Decompress(compressed)
			}
		})
	}
}
