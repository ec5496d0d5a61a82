package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"
)

// Default time a rank keeps retrying to reach a peer that has not started listening yet
const DefaultDialTimeout = 30 * time.Second

// TCP is a multi-process endpoint. Every rank listens on its own address;
// messages to a peer go over one outbound connection dialed on first use,
// messages from a peer arrive on the connection that peer dialed.
type TCP struct {
	rank     int
	peers    []string
	listener net.Listener
	box      *mailbox
	logger   *log.Logger

	DialTimeout time.Duration

	mutex    sync.Mutex // Guards outboxes, accepted and closed
	outboxes map[int]*outbox
	accepted []net.Conn
	closed   bool
	writers  sync.WaitGroup
}

// Queue of frames waiting to be written to one peer
type outbox struct {
	cond   *sync.Cond
	frames []frame
	closed bool
}

// Listen on peers[rank] and start accepting connections from other ranks
func ListenTCP(rank int, peers []string, logger *log.Logger) (*TCP, error) {
	if rank < 0 || rank >= len(peers) {
		return nil, fmt.Errorf("transport: rank %d outside peer list of %d", rank, len(peers))
	}
	listener, err := net.Listen("tcp", peers[rank])
	if err != nil {
		return nil, fmt.Errorf("transport: listen on %s: %w", peers[rank], err)
	}
	return NewTCP(rank, listener, peers, logger), nil
}

// Create endpoint on an existing listener, peers[i] is the address of rank i
func NewTCP(rank int, listener net.Listener, peers []string, logger *log.Logger) *TCP {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	t := &TCP{
		rank:        rank,
		peers:       peers,
		listener:    listener,
		box:         newMailbox(),
		logger:      logger,
		DialTimeout: DefaultDialTimeout,
		outboxes:    make(map[int]*outbox),
	}
	go t.accept()
	return t
}

func (t *TCP) Rank() int { return t.rank }

func (t *TCP) Size() int { return len(t.peers) }

// Address this endpoint accepts connections on
func (t *TCP) Addr() net.Addr { return t.listener.Addr() }

func (t *TCP) Send(target int, payload []int, tag Tag) error {
	if err := checkRank(t, target); err != nil {
		return err
	}
	if err := t.box.failure(); err != nil {
		return err
	}
	if err := checkFrameSize(len(payload)); err != nil {
		return err
	}
	copied := make([]int, len(payload))
	copy(copied, payload)

	t.mutex.Lock()
	if t.closed {
		t.mutex.Unlock()
		return ErrClosed
	}
	out, ok := t.outboxes[target]
	if !ok {
		out = &outbox{cond: sync.NewCond(new(sync.Mutex))}
		t.outboxes[target] = out
		t.writers.Add(1)
		go t.write(target, out)
	}
	t.mutex.Unlock()

	out.cond.L.Lock()
	out.frames = append(out.frames, frame{tag: tag, source: t.rank, payload: copied})
	out.cond.Signal()
	out.cond.L.Unlock()
	return nil
}

func (t *TCP) Recv(source int, length int, tag Tag) ([]int, error) {
	if err := checkRank(t, source); err != nil {
		return nil, err
	}
	return t.box.take(source, tag, length)
}

// Close flushes queued frames, then releases every connection
func (t *TCP) Close() error {
	t.mutex.Lock()
	if t.closed {
		t.mutex.Unlock()
		return nil
	}
	t.closed = true
	for _, out := range t.outboxes {
		out.cond.L.Lock()
		out.closed = true
		out.cond.Signal()
		out.cond.L.Unlock()
	}
	t.mutex.Unlock()

	t.writers.Wait()
	err := t.listener.Close()

	t.mutex.Lock()
	for _, conn := range t.accepted {
		conn.Close()
	}
	t.mutex.Unlock()

	t.box.fail(ErrClosed)
	return err
}

// Dial a peer, retrying until it starts listening or the timeout expires
func (t *TCP) dial(target int) (net.Conn, error) {
	deadline := time.Now().Add(t.DialTimeout)
	for {
		conn, err := net.DialTimeout("tcp", t.peers[target], time.Second)
		if err == nil {
			t.logger.Printf("Connected to rank %d at %s", target, t.peers[target])
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("transport: dial rank %d at %s: %w", target, t.peers[target], err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Writer goroutine of one outbox, exits once closed and drained
func (t *TCP) write(target int, out *outbox) {
	defer t.writers.Done()

	conn, err := t.dial(target)
	if err != nil {
		t.logger.Print(err.Error())
		t.box.fail(err)
		return
	}
	defer conn.Close()
	buffer := bufio.NewWriter(conn)

	for {
		out.cond.L.Lock()
		for len(out.frames) == 0 && !out.closed {
			out.cond.Wait()
		}
		if len(out.frames) == 0 {
			out.cond.L.Unlock()
			return
		}
		f := out.frames[0]
		out.frames[0] = frame{}
		out.frames = out.frames[1:]
		out.cond.L.Unlock()

		if err := writeFrame(buffer, f); err != nil {
			err = fmt.Errorf("transport: write %s to rank %d: %w", f.tag, target, err)
			t.logger.Print(err.Error())
			t.box.fail(err)
			return
		}
	}
}

// Accept connections dialed by peers until the listener closes
func (t *TCP) accept() {
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				t.box.fail(fmt.Errorf("transport: accept: %w", err))
			}
			return
		}
		t.mutex.Lock()
		if t.closed {
			t.mutex.Unlock()
			conn.Close()
			return
		}
		t.accepted = append(t.accepted, conn)
		t.mutex.Unlock()
		go t.monitor(conn)
	}
}

// Repeatedly read frames from connection until closed by the peer. A peer
// only closes after its last send, so receives from it that are still
// waiting will never complete.
func (t *TCP) monitor(conn net.Conn) {
	buffer := bufio.NewReader(conn)
	source := -1
	for {
		f, err := readFrame(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if errors.Is(err, io.EOF) {
				if source != -1 {
					t.logger.Printf("Rank %d disconnected", source)
					t.box.hangup(source)
				}
				return
			}
			err = fmt.Errorf("transport: read from %s: %w", conn.RemoteAddr(), err)
			t.logger.Print(err.Error())
			t.box.fail(err)
			return
		}
		if f.source < 0 || f.source >= len(t.peers) {
			t.box.fail(fmt.Errorf("transport: frame from unknown rank %d", f.source))
			return
		}
		source = f.source
		t.box.put(f.source, f.tag, f.payload)
	}
}
