package evi

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Session is one EVI conversation between the local audio devices and a chat
// socket. A Session holds at most one open socket and one ByteStream at a time.
type Session struct {
	id                 uuid.UUID
	apiKey             string
	configID           string
	allowUserInterrupt bool

	transport  Transport
	tokens     *TokenManager
	microphone Microphone
	player     Player
	console    *Console
	logger     *Logger
	observers  []MessageHandler

	mu      sync.Mutex
	running bool
	stream  *ByteStream
}

// Option customizes a Session.
type Option func(*Session)

func WithTransport(t Transport) Option {
	return func(s *Session) { s.transport = t }
}

// WithTokenManager authenticates with short lived access tokens instead of
// sending the API key.
func WithTokenManager(tm *TokenManager) Option {
	return func(s *Session) { s.tokens = tm }
}

func WithMicrophone(m Microphone) Option {
	return func(s *Session) { s.microphone = m }
}

func WithPlayer(p Player) Option {
	return func(s *Session) { s.player = p }
}

// WithMessageHandler runs h on every event before the built-in dispatch. An
// error from h ends the session like an error event does.
func WithMessageHandler(h MessageHandler) Option {
	return func(s *Session) { s.observers = append(s.observers, h) }
}

func WithConsole(c *Console) Option {
	return func(s *Session) { s.console = c }
}

func WithLogger(l *Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session for the given EVI config. Unless overridden,
// it talks to the default endpoint and uses PortAudio for capture and
// playback.
func NewSession(apiKey, configID string, allowUserInterrupt bool, opts ...Option) *Session {
	s := &Session{
		id:                 uuid.New(),
		apiKey:             apiKey,
		configID:           configID,
		allowUserInterrupt: allowUserInterrupt,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.transport == nil {
		s.transport = NewWebSocketTransport(NewConfig())
	}
	if s.console == nil {
		s.console = NewConsole(nil)
	}
	if s.logger == nil {
		s.logger = GetGlobalLogger()
	}
	s.logger = s.logger.WithComponent("session").WithField("session_id", s.id.String())

	return s
}

// NewSessionFromConfig builds a session from a loaded Config.
func NewSessionFromConfig(config *Config, opts ...Option) *Session {
	base := []Option{WithTransport(NewWebSocketTransport(config))}
	if config.SecretKey != "" {
		base = append(base, WithTokenManager(NewTokenManager(config.AuthEndpoint, config.APIKey, config.SecretKey, config.TokenRefreshBuffer)))
	}
	return NewSession(config.APIKey, config.ConfigID, config.AllowUserInterrupt, append(base, opts...)...)
}

func (s *Session) ID() string {
	return s.id.String()
}

// ByteStream returns the stream of the running session, or nil.
func (s *Session) ByteStream() *ByteStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// Run opens the chat socket, streams the microphone into it and blocks until
// the capture stops or the socket closes. The socket is closed on every exit
// path. An error event from the service is returned as *RemoteServiceError;
// nothing is retried.
func (s *Session) Run(ctx context.Context) error {
	stream, err := s.begin()
	if err != nil {
		return err
	}
	defer s.end(stream)

	release, err := s.openAudio()
	if err != nil {
		return err
	}
	defer release()

	opts, err := s.connectOptions(ctx)
	if err != nil {
		return err
	}

	socket, err := s.transport.Connect(ctx, opts, Callbacks{
		OnOpen:    func() { s.console.Print("WebSocket connection opened.") },
		OnMessage: SequentialMessageHandlers(append(append([]MessageHandler{}, s.observers...), s.OnMessage)...),
		OnClose:   func() { s.console.Print("WebSocket connection closed.") },
		OnError:   func(err error) { s.console.Print(fmt.Sprintf("Error: %v", err)) },
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := socket.Close(); err != nil {
			s.logger.WithError(err).Debug("Socket close failed")
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()
		return s.microphone.StartCapture(gctx, socket, CaptureOptions{
			AllowUserInterrupt: s.allowUserInterrupt,
			ByteStream:         stream,
		})
	})
	g.Go(func() error {
		select {
		case <-socket.Done():
			cancel()
			return socket.Err()
		case <-gctx.Done():
			return nil
		}
	})

	err = g.Wait()

	// Once the read loop has ended, its reason wins over a capture error
	// caused by the closing connection.
	select {
	case <-socket.Done():
		if serr := socket.Err(); serr != nil {
			return serr
		}
	default:
	}

	if err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Session) begin() (*ByteStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrSessionRunning
	}
	s.running = true
	s.stream = NewByteStream()
	return s.stream, nil
}

func (s *Session) end(stream *ByteStream) {
	stream.Close()
	s.mu.Lock()
	s.running = false
	s.stream = nil
	s.mu.Unlock()
}

// openAudio fills in PortAudio devices for whatever was not supplied and
// returns a func releasing them.
func (s *Session) openAudio() (func(), error) {
	var closers []func()
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if s.player == nil {
		p, err := NewPortAudioPlayer()
		if err != nil {
			return nil, err
		}
		s.player = p
		closers = append(closers, func() { p.Close(); s.player = nil })
	}

	if s.microphone == nil {
		m, err := NewPortAudioMicrophone(nil)
		if err != nil {
			release()
			return nil, err
		}
		s.microphone = m
		closers = append(closers, func() { m.Close(); s.microphone = nil })
	}

	return release, nil
}

func (s *Session) connectOptions(ctx context.Context) (ConnectOptions, error) {
	opts := ConnectOptions{ConfigID: s.configID, APIKey: s.apiKey}
	if s.tokens == nil {
		return opts, nil
	}
	token, err := s.tokens.GetToken(ctx)
	if err != nil {
		return opts, err
	}
	opts.AccessToken = token
	return opts, nil
}
