package transport

import (
	"errors"
	"fmt"
)

// Tag separates independent message streams between the same pair of ranks
type Tag uint8

// Message tag enumerations
const (
	TagHalo Tag = iota
	TagBarrier
	TagDisplay
	TagSetup
)

func (tag Tag) String() string {
	switch tag {
	case TagHalo:
		return "halo"
	case TagBarrier:
		return "barrier"
	case TagDisplay:
		return "display"
	case TagSetup:
		return "setup"
	}
	return fmt.Sprintf("tag(%d)", uint8(tag))
}

var (
	// ErrClosed is returned by operations on a closed channel
	ErrClosed = errors.New("transport: channel closed")
	// ErrShortPayload is returned when a received message does not have the expected length
	ErrShortPayload = errors.New("transport: unexpected payload length")
	// ErrHangup is returned when waiting for a peer that has disconnected
	ErrHangup = errors.New("transport: peer disconnected")
)

// Channel is the endpoint one rank uses to talk to every other rank. Messages
// between a (source, target, tag) triple are delivered reliably and in order.
type Channel interface {
	// Rank of this endpoint
	Rank() int
	// Total number of ranks
	Size() int
	// Send queues payload for target and returns without waiting for delivery
	Send(target int, payload []int, tag Tag) error
	// Recv blocks until a message of exactly length ints arrives from source
	Recv(source int, length int, tag Tag) ([]int, error)
	Close() error
}

// Barrier blocks until every rank has entered it. Rank 0 collects one arrival
// from every other rank and then releases them.
func Barrier(ch Channel) error {
	if ch.Size() == 1 {
		return nil
	}
	if ch.Rank() != 0 {
		if err := ch.Send(0, []int{ch.Rank()}, TagBarrier); err != nil {
			return fmt.Errorf("barrier arrive: %w", err)
		}
		if _, err := ch.Recv(0, 1, TagBarrier); err != nil {
			return fmt.Errorf("barrier release: %w", err)
		}
		return nil
	}
	for source := 1; source != ch.Size(); source++ {
		if _, err := ch.Recv(source, 1, TagBarrier); err != nil {
			return fmt.Errorf("barrier arrive from %d: %w", source, err)
		}
	}
	for target := 1; target != ch.Size(); target++ {
		if err := ch.Send(target, []int{0}, TagBarrier); err != nil {
			return fmt.Errorf("barrier release to %d: %w", target, err)
		}
	}
	return nil
}

// Broadcast sends payload from root to every other rank; the other ranks
// block until it arrives and return it.
func Broadcast(ch Channel, root int, payload []int, length int, tag Tag) ([]int, error) {
	if ch.Rank() != root {
		return ch.Recv(root, length, tag)
	}
	for target := 0; target != ch.Size(); target++ {
		if target == root {
			continue
		}
		if err := ch.Send(target, payload, tag); err != nil {
			return nil, fmt.Errorf("broadcast to %d: %w", target, err)
		}
	}
	return payload, nil
}

func checkRank(ch Channel, rank int) error {
	if rank < 0 || rank >= ch.Size() || rank == ch.Rank() {
		return fmt.Errorf("transport: rank %d is not a peer of rank %d (size %d)", rank, ch.Rank(), ch.Size())
	}
	return nil
}
