package curve

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/format"
	"github.com/arloliu/smartplot/message"
	"github.com/arloliu/smartplot/sample"
	"github.com/arloliu/smartplot/transmit"
)

type frameSink struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (s *frameSink) Submit(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames = append(s.frames, append([]byte(nil), frame...))

	return s.err
}

func (s *frameSink) messages(t *testing.T) []message.Message {
	t.Helper()

	var out []message.Message
	for _, f := range s.frames {
		for msg, err := range message.Native().Split(f) {
			require.NoError(t, err)
			out = append(out, msg)
		}
	}

	return out
}

func floats(t *testing.T, data []byte) []float32 {
	t.Helper()

	v, err := sample.Values[float32](sample.Raw(format.TypeFloat32, data))
	require.NoError(t, err)

	return v
}

func newSeries(t *testing.T, capacity int) *Series1D {
	t.Helper()

	s, err := NewSeries1D(transmit.New(nil), "plot", "curve", format.TypeFloat32, capacity)
	require.NoError(t, err)

	return s
}

// ==============================================================================
// Policy
// ==============================================================================

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		pending   int
		written   int
		capacity  int
		threshold int
		want      Decision
	}{
		{"negative threshold", 0, 100, 10, -1, None},
		{"threshold equals capacity", 0, 10, 10, 10, None},
		{"threshold above capacity", 0, 10, 10, 11, None},
		{"backlog fills buffer", 6, 4, 10, 5, Create},
		{"backlog overflows buffer", 0, 25, 10, 5, Create},
		{"threshold reached", 0, 5, 10, 5, Update},
		{"threshold reached with backlog", 3, 2, 10, 5, Update},
		{"below threshold", 1, 2, 10, 5, None},
		{"zero threshold always updates", 0, 0, 10, 0, Update},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.pending, tt.written, tt.capacity, tt.threshold))
		})
	}
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "None", None.String())
	assert.Equal(t, "Create", Create.String())
	assert.Equal(t, "Update", Update.String())
	assert.Equal(t, "Unknown", Decision(9).String())
}

// ==============================================================================
// Series1D
// ==============================================================================

func TestSeries1D_Scenario(t *testing.T) {
	s := newSeries(t, 4)
	sink := &frameSink{}

	d, err := s.Append(sink, sample.Of([]float32{1, 2}), 4, 3)
	require.NoError(t, err)
	require.Equal(t, None, d)
	require.Empty(t, sink.frames)
	require.Equal(t, Accumulating, s.Ring().State())

	d, err = s.Append(sink, sample.Of([]float32{3}), 4, 3)
	require.NoError(t, err)
	require.Equal(t, Update, d)

	msgs := sink.messages(t)
	require.Len(t, msgs, 1)
	require.Equal(t, format.ActionUpdate1D, msgs[0].Action)
	require.Equal(t, uint32(0), msgs[0].Start)
	require.Equal(t, uint32(3), msgs[0].Count)
	require.Equal(t, []float32{1, 2, 3}, floats(t, msgs[0].Y))
	require.Zero(t, s.Ring().Pending())

	sink.frames = nil
	d, err = s.Append(sink, sample.Of([]float32{4, 5, 6, 7}), 4, 3)
	require.NoError(t, err)
	require.Equal(t, Create, d)

	msgs = sink.messages(t)
	require.Len(t, msgs, 1)
	require.Equal(t, format.ActionCreate1D, msgs[0].Action)
	require.Equal(t, uint32(4), msgs[0].Count)
	require.Equal(t, []float32{5, 6, 7, 4}, floats(t, msgs[0].Y))

	ring := s.Ring()
	require.Equal(t, ring.Write(), ring.Read())
	require.Equal(t, SteadyState, ring.State())
}

func TestSeries1D_ThresholdUpdate(t *testing.T) {
	for _, tc := range []struct{ capacity, threshold int }{{10, 1}, {10, 9}, {4, 3}, {100, 0}} {
		s := newSeries(t, tc.capacity)
		sink := &frameSink{}

		vals := make([]float32, tc.threshold)
		d, err := s.Append(sink, sample.Of(vals), tc.capacity, tc.threshold)
		require.NoError(t, err)

		if tc.threshold == 0 {
			// nothing to send for an empty append
			require.Empty(t, sink.frames)
			continue
		}

		require.Equal(t, Update, d)
		msgs := sink.messages(t)
		require.Len(t, msgs, 1)
		require.Equal(t, uint32(tc.threshold), msgs[0].Count)
		require.Zero(t, s.Ring().Pending())
	}
}

func TestSeries1D_WraparoundSplit(t *testing.T) {
	s := newSeries(t, 10)
	sink := &frameSink{}

	_, err := s.Append(sink, sample.Of([]float32{0, 1, 2, 3, 4, 5, 6}), 10, 7)
	require.NoError(t, err)
	require.Equal(t, 7, s.Ring().Read())

	sink.frames = nil
	d, err := s.Append(sink, sample.Of([]float32{7, 8, 9, 10, 11}), 10, 5)
	require.NoError(t, err)
	require.Equal(t, Update, d)

	msgs := sink.messages(t)
	require.Len(t, msgs, 2)
	require.Equal(t, uint32(7), msgs[0].Start)
	require.Equal(t, uint32(3), msgs[0].Count)
	require.Equal(t, []float32{7, 8, 9}, floats(t, msgs[0].Y))
	require.Equal(t, uint32(0), msgs[1].Start)
	require.Equal(t, uint32(2), msgs[1].Count)
	require.Equal(t, []float32{10, 11}, floats(t, msgs[1].Y))

	require.Equal(t, 2, s.Ring().Write())
	require.Equal(t, 2, s.Ring().Read())
}

func TestSeries1D_NegativeThresholdNeverSends(t *testing.T) {
	s := newSeries(t, 10)
	sink := &frameSink{}

	for range 20 {
		d, err := s.Append(sink, sample.Of([]float32{1, 2, 3}), 10, -1)
		require.NoError(t, err)
		require.Equal(t, None, d)
	}
	require.Empty(t, sink.frames)

	// 60 samples leave the write cursor at 0 with nothing marked sent
	_, err := s.Append(sink, sample.Of([]float32{1, 2, 3}), 10, -1)
	require.NoError(t, err)
	require.Equal(t, 3, s.Ring().Pending())

	require.NoError(t, s.Flush(sink))
	msgs := sink.messages(t)
	require.Len(t, msgs, 1)
	require.Equal(t, format.ActionUpdate1D, msgs[0].Action)
	require.Equal(t, uint32(3), msgs[0].Count)
}

func TestSeries1D_OverflowKeepsLatest(t *testing.T) {
	s := newSeries(t, 3)
	sink := &frameSink{}

	vals := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	d, err := s.Append(sink, sample.Of(vals), 3, 1)
	require.NoError(t, err)
	require.Equal(t, Create, d)

	// 8 samples into 3 slots leave write at 2 and the last three values
	require.Equal(t, 2, s.Ring().Write())
	require.Equal(t, []float32{7, 8, 6}, floats(t, s.Snapshot().Data))
}

func TestSeries1D_Resize(t *testing.T) {
	s := newSeries(t, 4)
	sink := &frameSink{}

	_, err := s.Append(sink, sample.Of([]float32{1, 2}), 4, -1)
	require.NoError(t, err)

	_, err = s.Append(sink, sample.Of([]float32{9}), 6, -1)
	require.NoError(t, err)

	ring := s.Ring()
	require.Equal(t, 6, ring.Capacity())
	require.Equal(t, 1, ring.Write())
	require.Equal(t, 0, ring.Read())
	require.Equal(t, []float32{9, 0, 0, 0, 0, 0}, floats(t, s.Snapshot().Data))

	// zero capacity keeps the current buffer
	_, err = s.Append(sink, sample.Of([]float32{8}), 0, -1)
	require.NoError(t, err)
	require.Equal(t, 6, s.Ring().Capacity())
}

func TestSeries1D_AllocationFailureKeepsState(t *testing.T) {
	s := newSeries(t, 4)
	sink := &frameSink{}

	_, err := s.Append(sink, sample.Of([]float32{1, 2}), 4, -1)
	require.NoError(t, err)

	_, err = s.Append(sink, sample.Of([]float32{3}), MaxCapacity, -1)
	require.ErrorIs(t, err, errs.ErrAllocation)

	ring := s.Ring()
	require.Equal(t, 4, ring.Capacity())
	require.Equal(t, 2, ring.Write())

	_, err = NewSeries1D(transmit.New(nil), "p", "c", format.TypeFloat64, MaxCapacity)
	require.ErrorIs(t, err, errs.ErrAllocation)
}

func TestSeries1D_InvalidParameters(t *testing.T) {
	tx := transmit.New(nil)

	_, err := NewSeries1D(tx, "p", "c", format.TypeInvalid, 4)
	require.ErrorIs(t, err, errs.ErrInvalidDataType)

	_, err = NewSeries1D(tx, "p", "c", format.TypeFloat32, 0)
	require.ErrorIs(t, err, errs.ErrInvalidCapacity)

	_, err = NewSeries1D(tx, "p", "c", format.TypeFloat32, -3)
	require.ErrorIs(t, err, errs.ErrInvalidCapacity)

	s := newSeries(t, 4)
	_, err = s.Append(&frameSink{}, sample.Of([]int32{1}), 4, 0)
	require.ErrorIs(t, err, errs.ErrInvalidDataType)
}

func TestSeries1D_RejectedAppendKeepsState(t *testing.T) {
	s := newSeries(t, 8)
	sink := &frameSink{}

	_, err := s.Append(sink, sample.Of([]float32{1, 2, 3}), 8, -1)
	require.NoError(t, err)
	before := s.Ring()

	_, err = s.Append(sink, sample.Of([]int32{9}), 16, -1)
	require.ErrorIs(t, err, errs.ErrInvalidDataType)
	require.Equal(t, before, s.Ring())
	require.Equal(t, []float32{1, 2, 3, 0, 0, 0, 0, 0}, floats(t, s.Snapshot().Data))

	require.NoError(t, s.Flush(sink))
	msgs := sink.messages(t)
	require.Len(t, msgs, 1)
	require.Equal(t, []float32{1, 2, 3}, floats(t, msgs[0].Y))
}

func TestSeries1D_SendFailureStillAdvances(t *testing.T) {
	s := newSeries(t, 4)
	sink := &frameSink{err: errors.New("offline")}

	d, err := s.Append(sink, sample.Of([]float32{1, 2}), 4, 1)
	require.Error(t, err)
	require.Equal(t, Update, d)
	require.Zero(t, s.Ring().Pending())
}

func TestSeries1D_StridedInput(t *testing.T) {
	type reading struct {
		ID    uint32
		Value float32
	}
	rs := []reading{{1, 1.5}, {2, 2.5}, {3, 3.5}}

	s := newSeries(t, 3)
	sink := &frameSink{}

	_, err := s.Append(sink, sample.Field[reading, float32](rs, 4), 3, -1)
	require.NoError(t, err)
	require.Equal(t, []float32{1.5, 2.5, 3.5}, floats(t, s.Snapshot().Data))
}

func TestSeries1D_ConcurrentAppend(t *testing.T) {
	s := newSeries(t, 64)
	sink := &frameSink{}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_, _ = s.Append(sink, sample.Of([]float32{1, 2, 3}), 64, 16)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, (8*100*3)%64, s.Ring().Write())
	for _, msg := range sink.messages(t) {
		require.Equal(t, "curve", msg.Curve)
	}
}

// ==============================================================================
// Series2D
// ==============================================================================

func TestSeries2D_UpdateAndCreate(t *testing.T) {
	s, err := NewSeries2D(transmit.New(nil), "p", "c", format.TypeInt32, format.TypeFloat32, 4)
	require.NoError(t, err)
	sink := &frameSink{}

	d, err := s.Append(sink, sample.Of([]int32{1, 2}), sample.Of([]float32{10, 20}), 4, 2)
	require.NoError(t, err)
	require.Equal(t, Update, d)

	msgs := sink.messages(t)
	require.Len(t, msgs, 1)
	require.Equal(t, format.ActionUpdate2D, msgs[0].Action)
	require.Equal(t, format.TypeInt32, msgs[0].XType)
	require.Equal(t, format.TypeFloat32, msgs[0].YType)
	require.Equal(t, []float32{10, 20}, floats(t, msgs[0].Y))

	sink.frames = nil
	d, err = s.Append(sink, sample.Of([]int32{3, 4, 5, 6}), sample.Of([]float32{30, 40, 50, 60}), 4, 2)
	require.NoError(t, err)
	require.Equal(t, Create, d)

	msgs = sink.messages(t)
	require.Len(t, msgs, 1)
	require.Equal(t, format.ActionCreate2D, msgs[0].Action)
	require.Equal(t, []float32{50, 60, 30, 40}, floats(t, msgs[0].Y))

	xs, err := sample.Values[int32](sample.Raw(format.TypeInt32, msgs[0].X))
	require.NoError(t, err)
	require.Equal(t, []int32{5, 6, 3, 4}, xs)
}

func TestSeries2D_AxisMismatch(t *testing.T) {
	s, err := NewSeries2D(transmit.New(nil), "p", "c", format.TypeFloat32, format.TypeFloat32, 4)
	require.NoError(t, err)

	_, err = s.Append(&frameSink{}, sample.Of([]float32{1, 2}), sample.Of([]float32{1}), 4, 0)
	require.ErrorIs(t, err, errs.ErrAxisMismatch)
	require.Zero(t, s.Ring().Write())

	_, err = NewSeries2D(transmit.New(nil), "p", "c", format.TypeFloat32, format.TypeInvalid, 4)
	require.ErrorIs(t, err, errs.ErrInvalidDataType)
}

func TestSeries2D_RejectedAppendKeepsState(t *testing.T) {
	s, err := NewSeries2D(transmit.New(nil), "p", "c", format.TypeFloat32, format.TypeFloat32, 4)
	require.NoError(t, err)
	sink := &frameSink{}

	_, err = s.Append(sink, sample.Of([]float32{1, 2}), sample.Of([]float32{10, 20}), 4, -1)
	require.NoError(t, err)
	before := s.Ring()

	_, err = s.Append(sink, sample.Of([]float32{3, 4}), sample.Of([]float32{30}), 8, -1)
	require.ErrorIs(t, err, errs.ErrAxisMismatch)
	require.Equal(t, before, s.Ring())

	_, err = s.Append(sink, sample.Of([]float32{3}), sample.Of([]int8{30}), 8, -1)
	require.ErrorIs(t, err, errs.ErrInvalidDataType)
	require.Equal(t, before, s.Ring())

	x, y := s.Snapshot()
	require.Equal(t, []float32{1, 2, 0, 0}, floats(t, x.Data))
	require.Equal(t, []float32{10, 20, 0, 0}, floats(t, y.Data))
}

// ==============================================================================
// Pair
// ==============================================================================

func TestPair_UpdateEnvelope(t *testing.T) {
	p, err := NewPair(transmit.New(nil), "p", "x", "y", format.TypeFloat32, 4)
	require.NoError(t, err)
	sinkX, sinkY := &frameSink{}, &frameSink{}

	d, err := p.Append(sinkX, sinkY, sample.Pairs([][2]float32{{1, 10}, {2, 20}}), 4, 2)
	require.NoError(t, err)
	require.Equal(t, Update, d)

	require.Empty(t, sinkY.frames)
	require.Len(t, sinkX.frames, 1)
	require.True(t, message.Native().IsGroup(sinkX.frames[0]))

	msgs := sinkX.messages(t)
	require.Len(t, msgs, 2)
	require.Equal(t, "x", msgs[0].Curve)
	require.Equal(t, []float32{1, 2}, floats(t, msgs[0].Y))
	require.Equal(t, "y", msgs[1].Curve)
	require.Equal(t, []float32{10, 20}, floats(t, msgs[1].Y))
	require.Equal(t, msgs[0].Count, msgs[1].Count)

	rx, ry := p.Rings()
	require.Equal(t, rx, ry)
}

func TestPair_CreateOnBothLinks(t *testing.T) {
	p, err := NewPair(transmit.New(nil), "p", "x", "y", format.TypeFloat32, 2)
	require.NoError(t, err)
	sinkX, sinkY := &frameSink{}, &frameSink{}

	d, err := p.Append(sinkX, sinkY, sample.Pairs([][2]float32{{1, 10}, {2, 20}, {3, 30}}), 2, 1)
	require.NoError(t, err)
	require.Equal(t, Create, d)

	mx := sinkX.messages(t)
	my := sinkY.messages(t)
	require.Len(t, mx, 1)
	require.Len(t, my, 1)
	require.Equal(t, format.ActionCreate1D, mx[0].Action)
	require.Equal(t, []float32{3, 2}, floats(t, mx[0].Y))
	require.Equal(t, []float32{30, 20}, floats(t, my[0].Y))
}

func TestPair_Release(t *testing.T) {
	p, err := NewPair(transmit.New(nil), "p", "x", "y", format.TypeInt16, 4)
	require.NoError(t, err)

	require.False(t, p.Release(true))
	x, y := p.Live()
	require.False(t, x)
	require.True(t, y)

	// the Y half still owns the buffer
	_, err = p.Append(&frameSink{}, &frameSink{}, sample.Pairs([][2]int16{{1, 2}}), 4, -1)
	require.NoError(t, err)
	require.Len(t, p.Snapshot().Data, 4*2*2)

	require.True(t, p.Release(false))
	require.Empty(t, p.Snapshot().Data)

	_, err = p.Append(&frameSink{}, &frameSink{}, sample.Pairs([][2]int16{{1, 2}}), 4, -1)
	require.ErrorIs(t, err, errs.ErrInvalidKey)
}

func TestPair_DetachedHalfNotSent(t *testing.T) {
	p, err := NewPair(transmit.New(nil), "p", "x", "y", format.TypeFloat32, 4)
	require.NoError(t, err)
	require.False(t, p.Release(true))

	sinkX, sinkY := &frameSink{}, &frameSink{}
	d, err := p.Append(sinkX, sinkY, sample.Pairs([][2]float32{{1, 10}, {2, 20}}), 4, 2)
	require.NoError(t, err)
	require.Equal(t, Update, d)

	require.Empty(t, sinkX.frames)
	msgs := sinkY.messages(t)
	require.Len(t, msgs, 1)
	require.Equal(t, format.ActionUpdate1D, msgs[0].Action)
	require.Equal(t, "y", msgs[0].Curve)
	require.Equal(t, []float32{10, 20}, floats(t, msgs[0].Y))

	rx, ry := p.Rings()
	require.Equal(t, rx, ry)
	require.Zero(t, ry.Pending())

	d, err = p.Append(sinkX, sinkY, sample.Pairs([][2]float32{{3, 30}, {4, 40}, {5, 50}, {6, 60}}), 4, 2)
	require.NoError(t, err)
	require.Equal(t, Create, d)
	require.Empty(t, sinkX.frames)

	msgs = sinkY.messages(t)
	require.Len(t, msgs, 2)
	require.Equal(t, format.ActionCreate1D, msgs[1].Action)
	require.Equal(t, "y", msgs[1].Curve)
}

func TestPair_TypeMismatch(t *testing.T) {
	p, err := NewPair(transmit.New(nil), "p", "x", "y", format.TypeFloat64, 4)
	require.NoError(t, err)

	_, err = p.Append(&frameSink{}, &frameSink{}, sample.Pairs([][2]float32{{1, 2}}), 4, 0)
	require.ErrorIs(t, err, errs.ErrInvalidDataType)
}

func TestPair_RejectedAppendKeepsState(t *testing.T) {
	p, err := NewPair(transmit.New(nil), "p", "x", "y", format.TypeFloat32, 4)
	require.NoError(t, err)
	sinkX, sinkY := &frameSink{}, &frameSink{}

	_, err = p.Append(sinkX, sinkY, sample.Pairs([][2]float32{{1, 10}, {2, 20}}), 4, -1)
	require.NoError(t, err)
	beforeX, beforeY := p.Rings()

	_, err = p.Append(sinkX, sinkY, sample.Pairs([][2]float64{{3, 30}}), 8, -1)
	require.ErrorIs(t, err, errs.ErrInvalidDataType)

	rx, ry := p.Rings()
	require.Equal(t, beforeX, rx)
	require.Equal(t, beforeY, ry)
	require.Equal(t, []float32{1, 10, 2, 20, 0, 0, 0, 0}, floats(t, p.Snapshot().Data))
}
