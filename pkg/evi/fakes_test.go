package evi

import (
	"bytes"
	"context"
	"sync"
	"time"
)

type fakePlayer struct {
	mu    sync.Mutex
	calls [][]int16
	rates []int
	err   error
}

func (p *fakePlayer) Play(samples []int16, sampleRate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, append([]int16(nil), samples...))
	p.rates = append(p.rates, sampleRate)
	return p.err
}

func (p *fakePlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// blockingMicrophone captures nothing and returns when ctx is done.
type blockingMicrophone struct {
	started chan struct{}
	once    sync.Once
}

func newBlockingMicrophone() *blockingMicrophone {
	return &blockingMicrophone{started: make(chan struct{})}
}

func (m *blockingMicrophone) StartCapture(ctx context.Context, _ Socket, _ CaptureOptions) error {
	m.once.Do(func() { close(m.started) })
	<-ctx.Done()
	return nil
}

type fakeSocket struct {
	mu       sync.Mutex
	settings []SessionSettings
	chunks   [][]byte
	sendErr  error
	onSend   func(n int) error
	err      error
	done     chan struct{}
	closed   int
	closeOne sync.Once
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{done: make(chan struct{})}
}

func (s *fakeSocket) SendAudioChunk(_ context.Context, chunk []byte) error {
	s.mu.Lock()
	s.chunks = append(s.chunks, append([]byte(nil), chunk...))
	n := len(s.chunks)
	hook := s.onSend
	s.mu.Unlock()

	if hook != nil {
		return hook(n)
	}
	return s.sendErr
}

func (s *fakeSocket) SendSessionSettings(_ context.Context, settings SessionSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = append(s.settings, settings)
	return nil
}

func (s *fakeSocket) Done() <-chan struct{} { return s.done }

func (s *fakeSocket) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// finish ends the fake read loop with err.
func (s *fakeSocket) finish(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.closeOne.Do(func() { close(s.done) })
}

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	s.closeOne.Do(func() { close(s.done) })
	return nil
}

func (s *fakeSocket) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeTransport struct {
	socket    *fakeSocket
	err       error
	opts      ConnectOptions
	callbacks Callbacks
	connected chan struct{}
}

func (t *fakeTransport) Connect(_ context.Context, opts ConnectOptions, callbacks Callbacks) (Socket, error) {
	if t.err != nil {
		return nil, t.err
	}
	t.opts = opts
	t.callbacks = callbacks
	if t.socket == nil {
		t.socket = newFakeSocket()
	}
	if t.connected != nil {
		close(t.connected)
	}
	return t.socket, nil
}

// newTestSession builds a session whose transcript goes to the returned
// buffer and whose audio goes to the returned player.
func newTestSession(allowUserInterrupt bool, opts ...Option) (*Session, *bytes.Buffer, *fakePlayer) {
	var buf bytes.Buffer
	player := &fakePlayer{}
	base := []Option{
		WithConsole(NewConsole(&buf)),
		WithLogger(NopLogger()),
		WithTransport(&fakeTransport{}),
		WithPlayer(player),
		WithMicrophone(newBlockingMicrophone()),
	}
	return NewSession("test-key", "test-config", allowUserInterrupt, append(base, opts...)...), &buf, player
}

// streamingMicrophone sends a frame every interval through captureLoop, the
// way PortAudioMicrophone does.
type streamingMicrophone struct {
	interval time.Duration
}

func (m *streamingMicrophone) StartCapture(ctx context.Context, socket Socket, opts CaptureOptions) error {
	frame := make([]int16, 160)
	src := frameSourceFunc(func() ([]int16, error) {
		time.Sleep(m.interval)
		return frame, nil
	})
	return captureLoop(ctx, src, socket, 16000, opts, time.Now)
}
