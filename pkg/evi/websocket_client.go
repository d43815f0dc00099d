package evi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeGracePeriod = time.Second

// WebSocketTransport dials the EVI chat endpoint.
type WebSocketTransport struct {
	config *Config
	dialer *websocket.Dialer
	logger *Logger
}

func NewWebSocketTransport(config *Config) *WebSocketTransport {
	if config == nil {
		config = NewConfig()
	}
	return &WebSocketTransport{
		config: config,
		dialer: websocket.DefaultDialer,
		logger: GetGlobalLogger().WithComponent("websocket"),
	}
}

// Connect dials the chat endpoint, reports OnOpen and starts the read loop.
// Every inbound event is passed to OnMessage on the read loop goroutine; the
// first error it returns ends the loop and becomes Socket.Err.
func (t *WebSocketTransport) Connect(ctx context.Context, opts ConnectOptions, callbacks Callbacks) (Socket, error) {
	endpoint, err := t.chatURL(opts)
	if err != nil {
		return nil, NewConfigError(fmt.Sprintf("invalid websocket endpoint: %v", err))
	}

	header := make(http.Header)
	if opts.AccessToken == "" && opts.APIKey != "" {
		header.Set("X-Hume-Api-Key", opts.APIKey)
	}
	for k, v := range t.config.Headers {
		header.Set(k, v)
	}

	t.logger.LogConnectionEvent("dial", Connecting, map[string]interface{}{"config_id": opts.ConfigID})

	conn, resp, err := t.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, WrapError(err, fmt.Sprintf("websocket handshake failed: %s", resp.Status), ErrCodeConnectionFailed).
				AddDetail("status_code", resp.StatusCode)
		}
		return nil, WrapError(err, "websocket dial failed", ErrCodeConnectionFailed)
	}

	ws := &webSocket{
		conn:      conn,
		callbacks: callbacks,
		logger:    t.logger,
		debug:     t.config.DebugWebsocket,
		done:      make(chan struct{}),
		state:     Connected,
	}
	ws.ctx, ws.cancel = context.WithCancel(context.Background())

	t.logger.LogConnectionEvent("open", Connected, nil)
	if callbacks.OnOpen != nil {
		callbacks.OnOpen()
	}

	go ws.messageLoop()
	return ws, nil
}

func (t *WebSocketTransport) chatURL(opts ConnectOptions) (string, error) {
	u, err := url.Parse(t.config.WsEndpoint)
	if err != nil {
		return "", err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	q := u.Query()
	if opts.ConfigID != "" {
		q.Set("config_id", opts.ConfigID)
	}
	if opts.AccessToken != "" {
		q.Set("access_token", opts.AccessToken)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type webSocket struct {
	conn      *websocket.Conn
	callbacks Callbacks
	logger    *Logger
	debug     bool

	ctx    context.Context
	cancel context.CancelFunc

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}

	mu     sync.Mutex
	state  ConnectionState
	err    error
	closed bool
}

func (ws *webSocket) messageLoop() {
	defer func() {
		ws.setState(Closed)
		ws.conn.Close()
		if ws.callbacks.OnClose != nil {
			ws.callbacks.OnClose()
		}
		close(ws.done)
	}()
	for {
		kind, data, err := ws.conn.ReadMessage()
		if err != nil {
			ws.handleReadError(err)
			return
		}
		if kind != websocket.TextMessage {
			ws.fail(NewWebSocketError(fmt.Sprintf("unexpected websocket frame type %d", kind)))
			return
		}

		if ws.debug {
			ws.logger.Debugf("Received message: %s", truncateFrame(data))
		}

		event, err := ParseEvent(data)
		if err != nil {
			ws.fail(err)
			return
		}

		if ws.callbacks.OnMessage == nil {
			continue
		}
		if err := ws.callbacks.OnMessage(ws.ctx, event); err != nil {
			ws.fail(err)
			return
		}
	}
}

// handleReadError separates a close we asked for or a normal close from the
// server from a broken connection.
func (ws *webSocket) handleReadError(err error) {
	ws.mu.Lock()
	closing := ws.closed
	ws.mu.Unlock()

	if closing || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		ws.logger.LogConnectionEvent("closed", Closed, map[string]interface{}{"reason": err.Error()})
		return
	}

	if ws.callbacks.OnError != nil {
		ws.callbacks.OnError(err)
	}
	ws.fail(WrapError(err, "websocket read failed", ErrCodeWebSocket))
}

func (ws *webSocket) fail(err error) {
	ws.mu.Lock()
	if ws.err == nil {
		ws.err = err
	}
	ws.state = ErrorState
	ws.mu.Unlock()

	ws.logger.WithError(err).Debug("Read loop stopped")
}

func (ws *webSocket) setState(state ConnectionState) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.state != ErrorState {
		ws.state = state
	}
}

func (ws *webSocket) State() ConnectionState {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.state
}

func (ws *webSocket) SendAudioChunk(ctx context.Context, chunk []byte) error {
	return ws.writeJSON(ctx, audioInput{
		Type: "audio_input",
		Data: base64.StdEncoding.EncodeToString(chunk),
	})
}

func (ws *webSocket) SendSessionSettings(ctx context.Context, settings SessionSettings) error {
	if settings.Type == "" {
		settings.Type = "session_settings"
	}
	return ws.writeJSON(ctx, settings)
}

func (ws *webSocket) writeJSON(ctx context.Context, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()

	if state := ws.State(); state != Connected {
		return ErrSocketClosed
	}

	if deadline, ok := ctx.Deadline(); ok {
		ws.conn.SetWriteDeadline(deadline)
		defer ws.conn.SetWriteDeadline(time.Time{})
	}

	if ws.debug {
		ws.logger.Debugf("Sending message: %T", v)
	}

	if err := ws.conn.WriteJSON(v); err != nil {
		return WrapError(err, "websocket write failed", ErrCodeWebSocket)
	}
	return nil
}

func (ws *webSocket) Done() <-chan struct{} {
	return ws.done
}

func (ws *webSocket) Err() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.err
}

// Close sends a close frame, waits briefly for the read loop to finish and
// tears the connection down.
func (ws *webSocket) Close() error {
	var err error
	ws.closeOnce.Do(func() {
		ws.logger.LogConnectionEvent("close", ws.State(), nil)

		ws.mu.Lock()
		ws.closed = true
		ws.mu.Unlock()

		select {
		case <-ws.done:
		default:
			ws.writeMu.Lock()
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			werr := ws.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
			ws.writeMu.Unlock()
			if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
				err = werr
			}

			select {
			case <-ws.done:
			case <-time.After(closeGracePeriod):
				ws.conn.Close()
			}
		}

		ws.cancel()
		<-ws.done
	})
	return err
}

func truncateFrame(data []byte) string {
	const max = 256
	if len(data) <= max {
		return string(data)
	}
	return string(data[:max]) + "..."
}
