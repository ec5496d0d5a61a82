package transport

import (
	"fmt"
	"sync"
)

type mailboxKey struct {
	source int
	tag    Tag
}

// Mailbox holds received messages in per (source, tag) FIFO queues.
// Receivers wait on the condition variable until their queue is non-empty.
type mailbox struct {
	cond   *sync.Cond
	queues map[mailboxKey][][]int
	gone   map[int]bool // Sources that will not send any more messages
	err    error        // Set once, fails every pending and later receive
}

func newMailbox() *mailbox {
	return &mailbox{
		cond:   sync.NewCond(new(sync.Mutex)),
		queues: make(map[mailboxKey][][]int),
		gone:   make(map[int]bool),
	}
}

// Deliver a message, ownership of payload is transferred to the mailbox
func (box *mailbox) put(source int, tag Tag, payload []int) {
	box.cond.L.Lock()
	key := mailboxKey{source, tag}
	box.queues[key] = append(box.queues[key], payload)
	box.cond.Broadcast()
	box.cond.L.Unlock()
}

// Wait for the oldest message from source with tag
func (box *mailbox) take(source int, tag Tag, length int) ([]int, error) {
	box.cond.L.Lock()
	defer box.cond.L.Unlock()
	key := mailboxKey{source, tag}
	for len(box.queues[key]) == 0 && box.err == nil && !box.gone[source] {
		box.cond.Wait()
	}
	if len(box.queues[key]) == 0 {
		if box.err != nil {
			return nil, box.err
		}
		return nil, fmt.Errorf("%w: rank %d", ErrHangup, source)
	}
	payload := box.queues[key][0]
	box.queues[key][0] = nil
	box.queues[key] = box.queues[key][1:]
	if len(payload) != length {
		return nil, fmt.Errorf("%w: %s message from rank %d has %d values, expected %d",
			ErrShortPayload, tag, source, len(payload), length)
	}
	return payload, nil
}

// Wake every receiver with err
func (box *mailbox) fail(err error) {
	box.cond.L.Lock()
	if box.err == nil {
		box.err = err
	}
	box.cond.Broadcast()
	box.cond.L.Unlock()
}

// Fail receives from source once its queued messages are consumed
func (box *mailbox) hangup(source int) {
	box.cond.L.Lock()
	box.gone[source] = true
	box.cond.Broadcast()
	box.cond.L.Unlock()
}

func (box *mailbox) failure() error {
	box.cond.L.Lock()
	defer box.cond.L.Unlock()
	return box.err
}
