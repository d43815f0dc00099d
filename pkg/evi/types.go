package evi

import "context"

// Result types for error handling
type Result[T any] struct {
	Data    T
	Error   *EVIError
	Success bool
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Data: data, Success: true}
}

func Err[T any](err *EVIError) Result[T] {
	return Result[T]{Error: err, Success: false}
}

// ConnectionState enum
type ConnectionState string

const (
	Disconnected ConnectionState = "disconnected"
	Connecting   ConnectionState = "connecting"
	Connected    ConnectionState = "connected"
	Closed       ConnectionState = "closed"
	ErrorState   ConnectionState = "error"
)

// AccessToken is a short lived credential used instead of the API key on the
// websocket URL.
type AccessToken struct {
	Token     string
	ExpiresAt int64 // Unix timestamp in milliseconds
}

// ConnectOptions are sent to the chat endpoint when the socket is opened.
type ConnectOptions struct {
	ConfigID string
	// APIKey is used when AccessToken is empty.
	APIKey      string
	AccessToken string
}

// AudioSettings describes the raw audio the client streams as audio_input.
type AudioSettings struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// SessionSettings is the session_settings message.
type SessionSettings struct {
	Type  string         `json:"type"`
	Audio *AudioSettings `json:"audio,omitempty"`
}

// audioInput is the audio_input message carrying one base64 microphone chunk.
type audioInput struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// CaptureOptions configure a microphone capture against an open socket.
type CaptureOptions struct {
	AllowUserInterrupt bool
	ByteStream         *ByteStream
}

// Handler types
type OpenHandler func()
type MessageHandler func(ctx context.Context, event Event) error
type CloseHandler func()
type ErrorHandler func(err error)

// Callbacks are the four connection-level slots a Transport invokes.
type Callbacks struct {
	OnOpen    OpenHandler
	OnMessage MessageHandler
	OnClose   CloseHandler
	OnError   ErrorHandler
}

// Transport opens chat sockets.
type Transport interface {
	Connect(ctx context.Context, opts ConnectOptions, callbacks Callbacks) (Socket, error)
}

// Socket is an open chat connection. OnMessage is called from a single read
// loop, one event at a time.
type Socket interface {
	SendAudioChunk(ctx context.Context, chunk []byte) error
	SendSessionSettings(ctx context.Context, settings SessionSettings) error
	// Done is closed once the read loop has exited.
	Done() <-chan struct{}
	// Err reports why the read loop exited; nil after a normal close.
	Err() error
	Close() error
}

// Microphone captures local audio into a socket until ctx is done or the
// capture fails.
type Microphone interface {
	StartCapture(ctx context.Context, socket Socket, opts CaptureOptions) error
}

// Player plays mono PCM16 samples and returns once they have been written to
// the output device.
type Player interface {
	Play(samples []int16, sampleRate int) error
}
