package events

import "context"

// queue is an unbounded FIFO. items holds at most one non-empty slice and
// empty holds true while there is nothing queued, so exactly one of the two
// channels is full at any time.
type queue struct {
	items chan []Event
	empty chan bool
}

func newQueue() *queue {
	q := &queue{
		items: make(chan []Event, 1),
		empty: make(chan bool, 1),
	}
	q.empty <- true
	return q
}

func (q *queue) put(e Event) {
	var items []Event
	select {
	case items = <-q.items:
	case <-q.empty:
	}
	q.items <- append(items, e)
}

func (q *queue) get(ctx context.Context) (Event, bool) {
	var items []Event
	select {
	case <-ctx.Done():
		return Event{}, false
	case items = <-q.items:
	}

	e := items[0]
	if len(items) == 1 {
		q.empty <- true
	} else {
		q.items <- items[1:]
	}

	return e, true
}

type Token struct {
	t chan struct{}
}

// Bus broadcasts events to every registered subscriber. Once subscribed, a
// subscriber sees every event published after Subscribe returns, in order.
// Each subscriber has its own unbounded queue, so a slow reader never blocks
// Publish.
type Bus struct {
	st chan map[chan struct{}]*queue
}

var _ Publisher = (*Bus)(nil)

func NewBus() *Bus {
	st := make(chan map[chan struct{}]*queue, 1)
	st <- make(map[chan struct{}]*queue)

	return &Bus{st: st}
}

func (b *Bus) Subscribe() Token {
	t := make(chan struct{})

	st := <-b.st
	st[t] = newQueue()
	b.st <- st

	return Token{t}
}

func (b *Bus) Unsubscribe(t Token) {
	st := <-b.st
	delete(st, t.t)
	b.st <- st
}

func (b *Bus) Publish(e Event) {
	st := <-b.st
	for _, q := range st {
		q.put(e)
	}
	b.st <- st
}

// Next blocks until the subscriber identified by t has an event or ctx is
// done. ok is false if ctx is done or t is not subscribed.
func (b *Bus) Next(ctx context.Context, t Token) (e Event, ok bool) {
	st := <-b.st
	q := st[t.t]
	b.st <- st

	if q == nil {
		return Event{}, false
	}

	return q.get(ctx)
}

func (b *Bus) Subscribers() int {
	st := <-b.st
	n := len(st)
	b.st <- st
	return n
}
