package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events that find the buffer full instead of waiting.
	DropIfFull bool
	// Retain lists event types that are never dropped. Emit waits for room
	// for them even when DropIfFull is set.
	Retain []string
}

// queued is either an event or a flush marker.
type queued struct {
	event   Event
	flushed chan struct{}
}

// Dispatcher forwards audit events to a sink from one goroutine, in emit
// order. A nil *Dispatcher is valid and discards everything.
type Dispatcher struct {
	dropIfFull bool
	retain     map[string]struct{}
	sink       Sink
	ch         chan queued
	done       chan struct{}
	stopped    chan struct{}
	closed     atomic.Bool
	closeOnce  sync.Once

	dropped   atomic.Uint64
	mu        sync.Mutex
	droppedBy map[string]uint64
}

// NewDispatcher starts a dispatcher, or returns nil when cfg is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		dropIfFull: cfg.DropIfFull,
		retain:     make(map[string]struct{}, len(cfg.Retain)),
		sink:       sink,
		ch:         make(chan queued, cfg.BufferSize),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		droppedBy:  make(map[string]uint64),
	}
	for _, typ := range cfg.Retain {
		d.retain[typ] = struct{}{}
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.stopped)
	for {
		select {
		case q := <-d.ch:
			d.deliver(q)
		case <-d.done:
			for {
				select {
				case q := <-d.ch:
					d.deliver(q)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(q queued) {
	if q.flushed != nil {
		close(q.flushed)
		return
	}
	d.sink.Emit(context.Background(), q.event)
}

// Emit queues event. Droppable events that find the buffer full are counted
// and discarded; retained events, and every event without DropIfFull, wait
// for room until ctx is done.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.Droppable(event.EventType) {
		select {
		case d.ch <- queued{event: event}:
		case <-d.done:
		default:
			d.drop(event.EventType)
		}
		return
	}

	select {
	case d.ch <- queued{event: event}:
	case <-ctx.Done():
		d.drop(event.EventType)
	case <-d.done:
	}
}

// Droppable reports whether events of type typ are discarded on a full buffer.
func (d *Dispatcher) Droppable(typ string) bool {
	if d == nil || !d.dropIfFull {
		return false
	}
	_, keep := d.retain[typ]
	return !keep
}

func (d *Dispatcher) drop(typ string) {
	d.dropped.Add(1)
	d.mu.Lock()
	d.droppedBy[typ]++
	d.mu.Unlock()
}

// Flush waits until every event queued before the call has reached the sink.
func (d *Dispatcher) Flush(ctx context.Context) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	marker := make(chan struct{})
	select {
	case d.ch <- queued{flushed: marker}:
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-marker:
		return nil
	case <-d.stopped:
		// Close drained the queue; a marker enqueued after the drain is never read.
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains queued events and stops the dispatcher.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		<-d.stopped
	})
}

// Dropped returns the number of events dropped so far.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// DroppedByType returns the drop count of every event type that lost events.
func (d *Dispatcher) DroppedByType() map[string]uint64 {
	out := make(map[string]uint64)
	if d == nil {
		return out
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for typ, n := range d.droppedBy {
		out[typ] = n
	}
	return out
}
