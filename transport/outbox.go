package transport

import (
	"context"
	"errors"

	"github.com/arloliu/smartplot/internal/pool"
	"github.com/arloliu/smartplot/transmit"
)

// Outbox queues frames built while a curve is locked so they can be
// submitted after the lock is released.
//
// An Outbox is not safe for concurrent use.
type Outbox struct {
	buf   *pool.ByteBuffer
	items []queued
}

type queued struct {
	link     *Link
	from, to int
}

// NewOutbox returns an empty outbox backed by pooled memory.
// Release returns the memory.
func NewOutbox() *Outbox {
	return &Outbox{buf: pool.GetEnvelopeBuffer()}
}

// Sink returns a sink that queues copies of frames for link.
func (o *Outbox) Sink(link *Link) transmit.Sink {
	return transmit.SinkFunc(func(frame []byte) error {
		from := o.buf.Len()
		_, _ = o.buf.Write(frame)
		o.items = append(o.items, queued{link: link, from: from, to: o.buf.Len()})

		return nil
	})
}

// Len returns the number of queued frames.
func (o *Outbox) Len() int {
	return len(o.items)
}

// Flush submits the queued frames in order through b, then empties the
// outbox. All failures are returned joined.
func (o *Outbox) Flush(ctx context.Context, b *Batcher, tok *Token) error {
	var errList []error

	data := o.buf.Bytes()
	for _, it := range o.items {
		if err := b.Submit(ctx, tok, it.link, data[it.from:it.to]); err != nil {
			errList = append(errList, err)
		}
	}

	o.Reset()

	return errors.Join(errList...)
}

// Reset drops every queued frame.
func (o *Outbox) Reset() {
	o.buf.Reset()
	o.items = o.items[:0]
}

// Release returns the outbox memory to the pool. The outbox must not be used afterwards.
func (o *Outbox) Release() {
	pool.PutEnvelopeBuffer(o.buf)
	o.buf = nil
	o.items = nil
}
