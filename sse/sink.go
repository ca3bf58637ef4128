package sse

import (
	"errors"
	"sync"
)

var (
	// ErrSinkFull is returned when a client's queue cannot take another frame.
	ErrSinkFull = errors.New("sse: sink queue full")
	// ErrSinkClosed is returned when writing to a closed sink.
	ErrSinkClosed = errors.New("sse: sink closed")
)

// Sink is the output handle of one client. Write must not block; a frame
// that cannot be accepted immediately is reported as an error.
type Sink interface {
	Write(frame []byte) error
	Close() error
}

// chanSink queues frames on a bounded channel for a transport goroutine
// to drain.
type chanSink struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func newChanSink(size int) *chanSink {
	return &chanSink{ch: make(chan []byte, size)}
}

func (s *chanSink) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.ch <- frame:
		return nil
	default:
		return ErrSinkFull
	}
}

func (s *chanSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.closed = true
	close(s.ch)
	return nil
}

// Stream is what Connect hands back to the transport: the client id and
// the frames to relay. Frames is closed once the client is disconnected.
type Stream struct {
	ID     string
	Frames <-chan []byte

	hub *Hub
}

// Delivered records that a frame reached the peer. Transports call it after
// each successful write so the idle sweep sees a live consumer.
func (s *Stream) Delivered() {
	if s.hub != nil {
		s.hub.touch(s.ID)
	}
}
