package curve

import (
	"fmt"
	"math"

	"github.com/arloliu/smartplot/errs"
	"github.com/arloliu/smartplot/transmit"
)

// MaxCapacity is the largest buffer capacity in samples; sample counts are
// 32-bit on the wire.
const MaxCapacity = math.MaxUint32

// Ring tracks the cursors of a circular buffer.
//
// The zero Ring is empty with no capacity.
type Ring struct {
	read     int
	write    int
	capacity int
	state    State
}

// State is the fill state of a ring.
type State uint8

const (
	// Empty rings have not received a sample since allocation.
	Empty State = iota
	// Accumulating rings have received samples but not yet wrapped.
	Accumulating
	// SteadyState rings have wrapped at least once.
	SteadyState
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Accumulating:
		return "Accumulating"
	case SteadyState:
		return "SteadyState"
	default:
		return "Unknown"
	}
}

// NewRing returns an empty ring of the given capacity.
func NewRing(capacity int) Ring {
	return Ring{capacity: capacity}
}

// Capacity returns the number of slots.
func (r Ring) Capacity() int { return r.capacity }

// Read returns the index of the first unsent slot.
func (r Ring) Read() int { return r.read }

// Write returns the index of the next slot to fill.
func (r Ring) Write() int { return r.write }

// State returns the fill state.
func (r Ring) State() State { return r.state }

// Pending returns the number of unsent samples.
func (r Ring) Pending() int {
	return r.Window().Pending()
}

// Window returns the unsent range.
func (r Ring) Window() transmit.Window {
	return transmit.Window{Read: r.read, Write: r.write, Capacity: r.capacity}
}

// MarkSent treats every sample as sent.
func (r *Ring) MarkSent() {
	r.read = r.write
}

// buffer is the owned sample memory of a ring; one slot is elem bytes.
type buffer struct {
	data []byte
	elem int
}

// newBuffer allocates capacity slots of elem bytes.
func newBuffer(capacity, elem int) (buffer, error) {
	if capacity <= 0 || uint64(capacity) > MaxCapacity {
		return buffer{}, fmt.Errorf("capacity %d: %w", capacity, errs.ErrInvalidCapacity)
	}
	if elem <= 0 || capacity > math.MaxInt/elem {
		return buffer{}, fmt.Errorf("%d slots of %d bytes: %w", capacity, elem, errs.ErrAllocation)
	}

	return buffer{data: make([]byte, capacity*elem), elem: elem}, nil
}

// put copies count slots from src, read every stride bytes, into the buffer
// starting at r.write, wrapping modulo capacity, and advances r.write.
// When count exceeds the capacity only the samples that survive are copied.
func (b buffer) put(r *Ring, src []byte, count, stride int) {
	if count <= 0 || r.capacity <= 0 {
		return
	}

	if r.state == Empty {
		r.state = Accumulating
	}

	if count > r.capacity {
		skip := (count - r.capacity) / r.capacity * r.capacity
		src = src[skip*stride:]
		count -= skip
	}

	for count > 0 {
		n := min(r.capacity-r.write, count)
		transmit.StridedCopy(b.data[r.write*b.elem:], src, n, b.elem, stride)

		count -= n
		if count > 0 {
			src = src[n*stride:]
		}

		r.write += n
		if r.write >= r.capacity {
			r.write = 0
			r.state = SteadyState
		}
	}
}
