package hash

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"long string", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, ID(tt.data))
		})
	}
}

func TestCurveID(t *testing.T) {
	assert.Equal(t, ID("plot\x00curve"), CurveID("plot", "curve"))
	assert.Equal(t, ID("\x00"), CurveID("", ""))

	// the separator keeps shifted splits apart
	assert.NotEqual(t, CurveID("ab", "c"), CurveID("a", "bc"))
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, ID("frame"), Checksum([]byte("frame")))
	assert.Equal(t, ID(""), Checksum(nil))
}

func randString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, n)
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range b {
		b[i] = letters[seededRand.Intn(len(letters))]
	}

	return string(b)
}

func BenchmarkCurveID(b *testing.B) {
	plot, curve := randString(12), randString(20)
	b.ResetTimer()
	for b.Loop() {
		CurveID(plot, curve)
	}
}
