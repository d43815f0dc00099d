package evi

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const defaultFramesPerBuffer = 1024

// PortAudioDevice holds one PortAudio initialization and the device it was
// opened for. A nil device means the host default.
type PortAudioDevice struct {
	device    *portaudio.DeviceInfo
	closeOnce sync.Once
}

func (d *PortAudioDevice) init(deviceID *int) error {
	if err := portaudio.Initialize(); err != nil {
		return WrapError(err, "failed to initialize PortAudio", ErrCodeAudioDevice)
	}
	if deviceID == nil {
		return nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		portaudio.Terminate()
		return WrapError(err, "failed to list audio devices", ErrCodeAudioDevice)
	}
	if *deviceID < 0 || *deviceID >= len(devices) {
		portaudio.Terminate()
		return NewAudioError(fmt.Sprintf("device with ID %d not found", *deviceID))
	}
	d.device = devices[*deviceID]
	return nil
}

// Close releases the PortAudio initialization.
func (d *PortAudioDevice) Close() {
	d.closeOnce.Do(func() {
		if err := portaudio.Terminate(); err != nil {
			GetGlobalLogger().WithError(err).Warn("Failed to terminate PortAudio")
		}
	})
}

// outputStream is the part of *portaudio.Stream the player drives.
type outputStream interface {
	Start() error
	Write() error
	Stop() error
	Close() error
}

// PortAudioPlayer plays PCM16 through an output device. It keeps one stream
// open and reopens it only when the sample rate changes.
type PortAudioPlayer struct {
	PortAudioDevice
	framesPerBuffer int
	logger          *Logger
	openStream      func(sampleRate float64, out []int16) (outputStream, error)

	mu     sync.Mutex
	stream outputStream
	rate   int
	out    []int16
}

// NewPortAudioPlayer opens the default output device.
func NewPortAudioPlayer() (*PortAudioPlayer, error) {
	return NewPortAudioPlayerForDevice(nil)
}

// NewPortAudioPlayerForDevice opens the output device with the given index
// from portaudio.Devices, or the default one when deviceID is nil.
func NewPortAudioPlayerForDevice(deviceID *int) (*PortAudioPlayer, error) {
	p := &PortAudioPlayer{
		framesPerBuffer: defaultFramesPerBuffer,
		logger:          GetGlobalLogger().WithComponent("player"),
	}
	p.openStream = p.open
	if err := p.init(deviceID); err != nil {
		return nil, err
	}
	return p, nil
}

// Play writes the samples to the output stream at sampleRate. It returns once
// the last buffer has been handed to the device.
func (p *PortAudioPlayer) Play(samples []int16, sampleRate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureStream(sampleRate); err != nil {
		return err
	}

	for off := 0; off < len(samples); off += len(p.out) {
		n := copy(p.out, samples[off:])
		clear(p.out[n:])
		if err := p.stream.Write(); err != nil && err != portaudio.OutputUnderflowed {
			p.closeStream()
			return WrapError(err, "failed to write playback stream", ErrCodePlayback)
		}
	}

	p.logger.LogAudioEvent("played", map[string]interface{}{
		"samples":     len(samples),
		"sample_rate": sampleRate,
	})
	return nil
}

func (p *PortAudioPlayer) ensureStream(sampleRate int) error {
	if p.stream != nil && p.rate == sampleRate {
		return nil
	}
	p.closeStream()

	out := make([]int16, p.framesPerBuffer)
	stream, err := p.openStream(float64(sampleRate), out)
	if err != nil {
		return WrapError(err, "failed to open playback stream", ErrCodePlayback)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return WrapError(err, "failed to start playback stream", ErrCodePlayback)
	}

	p.stream, p.rate, p.out = stream, sampleRate, out
	return nil
}

func (p *PortAudioPlayer) closeStream() {
	if p.stream == nil {
		return
	}
	if err := p.stream.Stop(); err != nil {
		p.logger.WithError(err).Debug("Failed to stop playback stream")
	}
	if err := p.stream.Close(); err != nil {
		p.logger.WithError(err).Debug("Failed to close playback stream")
	}
	p.stream, p.rate, p.out = nil, 0, nil
}

// Close stops the open stream and releases PortAudio.
func (p *PortAudioPlayer) Close() {
	p.mu.Lock()
	p.closeStream()
	p.mu.Unlock()
	p.PortAudioDevice.Close()
}

func (p *PortAudioPlayer) open(sampleRate float64, out []int16) (outputStream, error) {
	if p.device == nil {
		return portaudio.OpenDefaultStream(0, 1, sampleRate, len(out), out)
	}
	params := portaudio.HighLatencyParameters(nil, p.device)
	params.Output.Channels = 1
	params.SampleRate = sampleRate
	params.FramesPerBuffer = len(out)
	return portaudio.OpenStream(params, out)
}
