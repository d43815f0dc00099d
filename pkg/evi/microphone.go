package evi

import (
	"context"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// MicrophoneConfig describes the capture format announced to EVI.
type MicrophoneConfig struct {
	SampleRate      int
	FramesPerBuffer int
	DeviceID        *int
}

func NewMicrophoneConfig() *MicrophoneConfig {
	return &MicrophoneConfig{
		SampleRate:      16000,
		FramesPerBuffer: defaultFramesPerBuffer,
	}
}

// PortAudioMicrophone streams a mono PCM16 input device into a socket.
type PortAudioMicrophone struct {
	PortAudioDevice
	config *MicrophoneConfig
	logger *Logger
}

func NewPortAudioMicrophone(config *MicrophoneConfig) (*PortAudioMicrophone, error) {
	if config == nil {
		config = NewMicrophoneConfig()
	}
	m := &PortAudioMicrophone{
		config: config,
		logger: GetGlobalLogger().WithComponent("microphone"),
	}
	if err := m.init(config.DeviceID); err != nil {
		return nil, err
	}
	return m, nil
}

// StartCapture announces the audio format, then sends one audio_input per
// buffer until ctx is done. It returns nil on cancellation.
func (m *PortAudioMicrophone) StartCapture(ctx context.Context, socket Socket, opts CaptureOptions) error {
	in := make([]int16, m.config.FramesPerBuffer)
	stream, err := m.open(in)
	if err != nil {
		return WrapError(err, "failed to open capture stream", ErrCodeAudioDevice)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return WrapError(err, "failed to start capture stream", ErrCodeAudioDevice)
	}
	defer stream.Stop()

	m.logger.LogAudioEvent("capture_started", map[string]interface{}{
		"sample_rate":     m.config.SampleRate,
		"allow_interrupt": opts.AllowUserInterrupt,
	})

	source := frameSourceFunc(func() ([]int16, error) {
		if err := stream.Read(); err != nil && err != portaudio.InputOverflowed {
			return nil, WrapError(err, "failed to read capture stream", ErrCodeAudioDevice)
		}
		return in, nil
	})
	return captureLoop(ctx, source, socket, m.config.SampleRate, opts, time.Now)
}

func (m *PortAudioMicrophone) open(in []int16) (*portaudio.Stream, error) {
	if m.device == nil {
		return portaudio.OpenDefaultStream(1, 0, float64(m.config.SampleRate), len(in), in)
	}
	params := portaudio.HighLatencyParameters(m.device, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(m.config.SampleRate)
	params.FramesPerBuffer = len(in)
	return portaudio.OpenStream(params, in)
}

type frameSource interface {
	ReadFrame() ([]int16, error)
}

type frameSourceFunc func() ([]int16, error)

func (f frameSourceFunc) ReadFrame() ([]int16, error) { return f() }

func captureLoop(ctx context.Context, source frameSource, socket Socket, sampleRate int, opts CaptureOptions, now func() time.Time) error {
	err := socket.SendSessionSettings(ctx, SessionSettings{
		Type: "session_settings",
		Audio: &AudioSettings{
			Encoding:   EncodingLinear16,
			SampleRate: sampleRate,
			Channels:   1,
		},
	})
	if err != nil {
		return err
	}

	gate := newSpeechGate(PlaybackSampleRate, now)
	if opts.ByteStream != nil {
		go gate.drain(ctx, opts.ByteStream)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := source.ReadFrame()
		if err != nil {
			return err
		}

		// Without interruption the user cannot talk over the assistant.
		if !opts.AllowUserInterrupt && gate.speaking() {
			continue
		}

		if err := socket.SendAudioChunk(ctx, EncodePCM16(frame)); err != nil {
			return sendFailed(ctx, socket, err)
		}
	}
}

// sendFailed decides how a failed send ends the capture. A send that fails
// because the read loop is shutting down is a clean stop; the reason is
// reported by the socket. It waits up to closeGracePeriod for that loop.
func sendFailed(ctx context.Context, socket Socket, err error) error {
	timer := time.NewTimer(closeGracePeriod)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil
	case <-socket.Done():
		return nil
	case <-timer.C:
		return err
	}
}

// speechGate tracks until when queued assistant audio is still playing.
type speechGate struct {
	mu         sync.Mutex
	until      time.Time
	sampleRate int
	now        func() time.Time
}

func newSpeechGate(sampleRate int, now func() time.Time) *speechGate {
	return &speechGate{sampleRate: sampleRate, now: now}
}

func (g *speechGate) add(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.until.Before(now) {
		g.until = now
	}
	g.until = g.until.Add(time.Duration(PCM16Duration(n, g.sampleRate) * float64(time.Second)))
}

func (g *speechGate) speaking() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now().Before(g.until)
}

func (g *speechGate) drain(ctx context.Context, stream *ByteStream) {
	for {
		chunk, err := stream.Next(ctx)
		if err != nil {
			return
		}
		g.add(len(chunk))
	}
}
