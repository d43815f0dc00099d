package evi

import (
	"context"
	"io"
	"sync"
)

// ByteStream is an unbounded FIFO of audio chunks shared by the dispatcher
// (writer) and the microphone (reader) of one session.
type ByteStream struct {
	mu     sync.Mutex
	chunks [][]byte
	ready  chan struct{}
	closed bool
}

func NewByteStream() *ByteStream {
	return &ByteStream{ready: make(chan struct{}, 1)}
}

// Put appends a chunk. It never blocks on the reader.
func (s *ByteStream) Put(ctx context.Context, chunk []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	s.chunks = append(s.chunks, chunk)
	select {
	case s.ready <- struct{}{}:
	default:
	}
	return nil
}

// Next blocks until a chunk is available. It returns io.EOF once the stream
// is closed and drained.
func (s *ByteStream) Next(ctx context.Context) ([]byte, error) {
	for {
		s.mu.Lock()
		if len(s.chunks) > 0 {
			chunk := s.chunks[0]
			s.chunks[0] = nil
			s.chunks = s.chunks[1:]
			s.mu.Unlock()
			return chunk, nil
		}
		if s.closed {
			s.mu.Unlock()
			return nil, io.EOF
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.ready:
		}
	}
}

// Len is the number of chunks waiting to be read.
func (s *ByteStream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// Close stops further writes and wakes a blocked reader.
func (s *ByteStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	select {
	case s.ready <- struct{}{}:
	default:
	}
}
