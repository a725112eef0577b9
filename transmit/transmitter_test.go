package transmit

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/smartplot/format"
	"github.com/arloliu/smartplot/message"
	"github.com/arloliu/smartplot/sample"
)

// recorder collects copies of submitted frames.
type recorder struct {
	frames [][]byte
	fail   error
}

func (r *recorder) Submit(frame []byte) error {
	r.frames = append(r.frames, append([]byte(nil), frame...))
	return r.fail
}

func decodeAll(t *testing.T, frames [][]byte) []message.Message {
	t.Helper()

	codec := message.Native()
	var out []message.Message
	for _, f := range frames {
		for msg, err := range codec.Split(f) {
			require.NoError(t, err)
			out = append(out, msg)
		}
	}

	return out
}

func float32s(t *testing.T, data []byte) []float32 {
	t.Helper()

	vals, err := sample.Values[float32](sample.Raw(format.TypeFloat32, data))
	require.NoError(t, err)

	return vals
}

// ==============================================================================
// Window
// ==============================================================================

func TestWindow_Segments(t *testing.T) {
	tests := []struct {
		name string
		w    Window
		want []Segment
	}{
		{"empty", Window{Read: 3, Write: 3, Capacity: 10}, nil},
		{"contiguous", Window{Read: 2, Write: 5, Capacity: 10}, []Segment{{2, 3}}},
		{"wrapped to zero", Window{Read: 7, Write: 0, Capacity: 10}, []Segment{{7, 3}}},
		{"wrapped", Window{Read: 7, Write: 2, Capacity: 10}, []Segment{{7, 3}, {0, 2}}},
		{"zero capacity", Window{Capacity: 0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, n := tt.w.Segments()
			require.Equal(t, len(tt.want), n)
			for i, want := range tt.want {
				require.Equal(t, want, segs[i])
			}
		})
	}
}

func TestWindow_PendingAndTrim(t *testing.T) {
	w := Window{Read: 7, Write: 2, Capacity: 10}
	require.Equal(t, 5, w.Pending())

	require.Equal(t, Window{Read: 7, Write: 0, Capacity: 10}, w.Trim(3))
	require.Equal(t, Window{Read: 7, Write: 1, Capacity: 10}, w.Trim(4))
	require.Equal(t, w, w.Trim(9))
	require.Equal(t, Window{Read: 7, Write: 7, Capacity: 10}, w.Trim(0))
}

// ==============================================================================
// Copy helpers
// ==============================================================================

func TestStridedCopy(t *testing.T) {
	src := []byte{1, 2, 0xEE, 3, 4, 0xEE, 5, 6}
	dst := make([]byte, 6)

	n := StridedCopy(dst, src, 3, 2, 3)
	require.Equal(t, 6, n)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, dst)

	require.Zero(t, StridedCopy(dst, src, 0, 2, 3))
}

func TestCopyAxis_OutOfRange(t *testing.T) {
	s := sample.Of([]float32{1, 2, 3})
	dst := make([]byte, 16)

	_, err := copyAxis(dst, s, 2, 2)
	require.Error(t, err)
}

// ==============================================================================
// Create
// ==============================================================================

func TestTransmitter_Create1D(t *testing.T) {
	tx := New(nil)
	rec := &recorder{}

	err := tx.Create1D(rec, "plot", "curve", 3, sample.Of([]float32{1, 2, 3, 4}))
	require.NoError(t, err)
	require.Len(t, rec.frames, 1)

	msgs := decodeAll(t, rec.frames)
	require.Equal(t, format.ActionCreate1D, msgs[0].Action)
	require.Equal(t, "plot", msgs[0].Plot)
	require.Equal(t, "curve", msgs[0].Curve)
	require.Equal(t, uint32(3), msgs[0].Count)
	require.Equal(t, []float32{1, 2, 3}, float32s(t, msgs[0].Y))
}

func TestTransmitter_Create2D_Strided(t *testing.T) {
	type point struct {
		X float32
		Y float32
		Z float32
	}
	pts := []point{{1, 10, 0}, {2, 20, 0}, {3, 30, 0}}

	xs := sample.Field[point, float32](pts, unsafe.Offsetof(point{}.X))
	ys := sample.Field[point, float32](pts, unsafe.Offsetof(point{}.Y))

	rec := &recorder{}
	require.NoError(t, New(nil).Create2D(rec, "p", "c", 3, xs, ys))

	msgs := decodeAll(t, rec.frames)
	require.Len(t, msgs, 1)
	require.Equal(t, format.ActionCreate2D, msgs[0].Action)
	require.False(t, msgs[0].Interleaved)
	require.Equal(t, []float32{1, 2, 3}, float32s(t, msgs[0].X))
	require.Equal(t, []float32{10, 20, 30}, float32s(t, msgs[0].Y))
}

func TestTransmitter_Create2DInterleaved(t *testing.T) {
	xy := sample.Of([]float32{1, 10, 2, 20})

	rec := &recorder{}
	require.NoError(t, New(nil).Create2DInterleaved(rec, "p", "c", 2, xy))

	msgs := decodeAll(t, rec.frames)
	require.Len(t, msgs, 1)
	require.True(t, msgs[0].Interleaved)
	require.Equal(t, uint32(2), msgs[0].Count)
	require.Equal(t, []float32{1, 10, 2, 20}, float32s(t, msgs[0].X))
	require.Nil(t, msgs[0].Y)
}

func TestTransmitter_Create_Errors(t *testing.T) {
	tx := New(nil)
	rec := &recorder{}

	require.Error(t, tx.Create1D(rec, "p", "c", -1, sample.Of([]float32{1})))
	require.Error(t, tx.Create1D(rec, "p", "c", 5, sample.Of([]float32{1})))
	require.Error(t, tx.Create1D(rec, "p\x00", "c", 1, sample.Of([]float32{1})))
	require.Empty(t, rec.frames)
}

// ==============================================================================
// Update
// ==============================================================================

func TestTransmitter_Update1D_Wraparound(t *testing.T) {
	buf := []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	rec := &recorder{}

	read, err := New(nil).Update1D(rec, "p", "c", sample.Of(buf), Window{Read: 7, Write: 2, Capacity: 10})
	require.NoError(t, err)
	require.Equal(t, 2, read)

	msgs := decodeAll(t, rec.frames)
	require.Len(t, msgs, 2)

	require.Equal(t, format.ActionUpdate1D, msgs[0].Action)
	require.Equal(t, uint32(7), msgs[0].Start)
	require.Equal(t, uint32(3), msgs[0].Count)
	require.Equal(t, []float32{7, 8, 9}, float32s(t, msgs[0].Y))

	require.Equal(t, uint32(0), msgs[1].Start)
	require.Equal(t, uint32(2), msgs[1].Count)
	require.Equal(t, []float32{0, 1}, float32s(t, msgs[1].Y))
}

func TestTransmitter_Update1D_Empty(t *testing.T) {
	rec := &recorder{}

	read, err := New(nil).Update1D(rec, "p", "c", sample.Of([]float32{1, 2}), Window{Read: 1, Write: 1, Capacity: 2})
	require.NoError(t, err)
	require.Equal(t, 1, read)
	require.Empty(t, rec.frames)
}

func TestTransmitter_Update1D_SendFailureAdvances(t *testing.T) {
	sendErr := errors.New("down")
	rec := &recorder{fail: sendErr}

	read, err := New(nil).Update1D(rec, "p", "c", sample.Of([]float32{1, 2, 3, 4}), Window{Read: 3, Write: 1, Capacity: 4})
	require.ErrorIs(t, err, sendErr)
	require.Equal(t, 1, read)
	require.Len(t, rec.frames, 2)
}

func TestTransmitter_Update2D(t *testing.T) {
	xs := sample.Of([]int32{0, 1, 2, 3})
	ys := sample.Of([]float32{0, 10, 20, 30})
	rec := &recorder{}

	read, err := New(nil).Update2D(rec, "p", "c", xs, ys, Window{Read: 1, Write: 3, Capacity: 4})
	require.NoError(t, err)
	require.Equal(t, 3, read)

	msgs := decodeAll(t, rec.frames)
	require.Len(t, msgs, 1)
	require.Equal(t, format.ActionUpdate2D, msgs[0].Action)
	require.Equal(t, uint32(1), msgs[0].Start)
	require.Equal(t, format.TypeInt32, msgs[0].XType)

	xv, err := sample.Values[int32](sample.Raw(format.TypeInt32, msgs[0].X))
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2}, xv)
	require.Equal(t, []float32{10, 20}, float32s(t, msgs[0].Y))
}

func TestTransmitter_Update2DInterleaved(t *testing.T) {
	xy := sample.Of([]float32{0, 0, 1, 10, 2, 20})
	rec := &recorder{}

	read, err := New(nil).Update2DInterleaved(rec, "p", "c", xy, Window{Read: 2, Write: 1, Capacity: 3})
	require.NoError(t, err)
	require.Equal(t, 1, read)

	msgs := decodeAll(t, rec.frames)
	require.Len(t, msgs, 2)
	require.Equal(t, []float32{2, 20}, float32s(t, msgs[0].X))
	require.Equal(t, []float32{0, 0}, float32s(t, msgs[1].X))
}

func TestTransmitter_UpdatePair(t *testing.T) {
	// four X,Y pairs in one buffer
	pairs := []float32{0, 0, 1, 10, 2, 20, 3, 30}
	raw := sample.Of(pairs).Data
	x := sample.Samples{Type: format.TypeFloat32, Data: raw, Stride: 8}
	y := sample.Samples{Type: format.TypeFloat32, Data: raw[4:], Stride: 8}

	rec := &recorder{}
	readX, readY, err := New(nil).UpdatePair(rec, "p",
		PairCurve{Curve: "x", Samples: x, Window: Window{Read: 3, Write: 2, Capacity: 4}},
		PairCurve{Curve: "y", Samples: y, Window: Window{Read: 3, Write: 1, Capacity: 4}},
	)
	require.NoError(t, err)
	require.Equal(t, 1, readX)
	require.Equal(t, 1, readY)

	require.Len(t, rec.frames, 1)
	require.True(t, message.Native().IsGroup(rec.frames[0]))

	msgs := decodeAll(t, rec.frames)
	require.Len(t, msgs, 4)

	require.Equal(t, "x", msgs[0].Curve)
	require.Equal(t, uint32(3), msgs[0].Start)
	require.Equal(t, []float32{3}, float32s(t, msgs[0].Y))
	require.Equal(t, "x", msgs[1].Curve)
	require.Equal(t, []float32{0}, float32s(t, msgs[1].Y))

	require.Equal(t, "y", msgs[2].Curve)
	require.Equal(t, []float32{30}, float32s(t, msgs[2].Y))
	require.Equal(t, "y", msgs[3].Curve)
	require.Equal(t, []float32{0}, float32s(t, msgs[3].Y))
}

func TestTransmitter_UpdatePair_NothingPending(t *testing.T) {
	pairs := sample.Of([]float32{1, 2})
	x := sample.Samples{Type: format.TypeFloat32, Data: pairs.Data, Stride: 8}

	rec := &recorder{}
	readX, readY, err := New(nil).UpdatePair(rec, "p",
		PairCurve{Curve: "x", Samples: x, Window: Window{Read: 0, Write: 0, Capacity: 1}},
		PairCurve{Curve: "y", Samples: x, Window: Window{Read: 0, Write: 0, Capacity: 1}},
	)
	require.NoError(t, err)
	require.Zero(t, readX)
	require.Zero(t, readY)
	require.Empty(t, rec.frames)
}
