package fanout

import (
	"context"
	"sync"
)

// DefaultBuffer is the per-connection outbound queue length.
const DefaultBuffer = 256

// Sink writes frames to the transport of one connection.
type Sink interface {
	Send(ctx context.Context, msg Message) error
	Close(reason CloseReason) error
}

// Connection is a Subscriber with a bounded outbound queue drained by a
// single writer goroutine, so a stalled peer only fills its own queue.
type Connection struct {
	id    string
	sink  Sink
	queue chan Message

	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	reason    CloseReason
}

// NewConnection wraps sink with an outbound queue of buffer messages.
func NewConnection(id string, sink Sink, buffer int) *Connection {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Connection{
		id:    id,
		sink:  sink,
		queue: make(chan Message, buffer),
		done:  make(chan struct{}),
	}
}

// ID implements Subscriber.
func (c *Connection) ID() string {
	return c.id
}

// Deliver implements Subscriber.
func (c *Connection) Deliver(msg Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.queue <- msg:
		return true
	default:
		return false
	}
}

// Close implements Subscriber.
func (c *Connection) Close(reason CloseReason) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.mu.Unlock()
		close(c.done)
	})
}

// Done is closed once the connection starts closing.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Reason returns why the connection closed, empty while open.
func (c *Connection) Reason() CloseReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Run drains the queue into the sink until the connection closes, then
// closes the sink with the recorded reason.
func (c *Connection) Run(ctx context.Context) error {
	for {
		select {
		case <-c.done:
			return c.sink.Close(c.Reason())
		case <-ctx.Done():
			c.Close(ReasonShutdown)
		case msg := <-c.queue:
			if err := c.sink.Send(ctx, msg); err != nil {
				c.Close(ReasonDisconnected)
			}
		}
	}
}
