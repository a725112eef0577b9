// Package curve implements managed curve storage and the flush policy.
//
// A store keeps the most recent samples of one curve in a circular buffer
// and decides on every append whether the unsent samples justify a send:
// an Update carrying only the unsent window, or a Create carrying the whole
// buffer once the backlog reaches the buffer size. Frames are handed to a
// transmit.Sink while the store lock is held; sinks are expected to queue
// them (see transport.Outbox) rather than write to the network.
package curve

// Decision is the send requested by the flush policy.
type Decision uint8

const (
	// None sends nothing.
	None Decision = iota
	// Create sends the whole buffer in one create message.
	Create
	// Update sends the unsent window in one or two update messages.
	Update
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case None:
		return "None"
	case Create:
		return "Create"
	case Update:
		return "Update"
	default:
		return "Unknown"
	}
}

// Decide applies the flush policy.
//
// pending is the unsent backlog measured before the append, written is the
// number of samples the append just copied. A negative threshold never sends,
// nor does a threshold the buffer can never reach. A threshold of zero sends
// on every call, which is how explicit flushes are expressed.
func Decide(pending, written, capacity, threshold int) Decision {
	switch {
	case threshold < 0:
		return None
	case capacity <= threshold:
		return None
	case pending+written >= capacity:
		return Create
	case written >= threshold-pending:
		return Update
	default:
		return None
	}
}
