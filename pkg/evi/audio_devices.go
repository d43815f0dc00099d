package evi

import (
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// AudioDevice describes one PortAudio device. ID is its index in
// portaudio.Devices and is what Config.InputDeviceID/OutputDeviceID refer to.
type AudioDevice struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	IsDefaultInput    bool
	IsDefaultOutput   bool
	HostAPI           string
}

func (d AudioDevice) IsInput() bool  { return d.MaxInputChannels > 0 }
func (d AudioDevice) IsOutput() bool { return d.MaxOutputChannels > 0 }

// Capabilities renders "Input", "Output", "Input/Output" or "None".
func (d AudioDevice) Capabilities() string {
	var caps []string
	if d.IsInput() {
		caps = append(caps, "Input")
	}
	if d.IsOutput() {
		caps = append(caps, "Output")
	}
	if len(caps) == 0 {
		return "None"
	}
	return strings.Join(caps, "/")
}

func (d AudioDevice) String() string {
	marker := ""
	switch {
	case d.IsDefaultInput && d.IsDefaultOutput:
		marker = " (Default Input/Output)"
	case d.IsDefaultInput:
		marker = " (Default Input)"
	case d.IsDefaultOutput:
		marker = " (Default Output)"
	}
	return fmt.Sprintf("%d: %s%s - %s (%.0f Hz, %s)", d.ID, d.Name, marker, d.Capabilities(), d.DefaultSampleRate, d.HostAPI)
}

// ListAudioDevices initializes PortAudio just long enough to enumerate the
// host's devices.
func ListAudioDevices() ([]AudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, WrapError(err, "failed to initialize PortAudio", ErrCodeAudioDevice)
	}
	defer portaudio.Terminate()

	logger := GetGlobalLogger().WithComponent("devices")

	defaultInput, err := portaudio.DefaultInputDevice()
	if err != nil {
		logger.WithError(err).Warn("No default input device")
	}
	defaultOutput, err := portaudio.DefaultOutputDevice()
	if err != nil {
		logger.WithError(err).Warn("No default output device")
	}

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, WrapError(err, "failed to list audio devices", ErrCodeAudioDevice)
	}
	return describeDevices(infos, defaultInput, defaultOutput), nil
}

func describeDevices(infos []*portaudio.DeviceInfo, defaultInput, defaultOutput *portaudio.DeviceInfo) []AudioDevice {
	devices := make([]AudioDevice, 0, len(infos))
	for i, info := range infos {
		hostAPI := "Unknown"
		if info.HostApi != nil {
			hostAPI = info.HostApi.Name
		}
		devices = append(devices, AudioDevice{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			IsDefaultInput:    defaultInput != nil && info == defaultInput,
			IsDefaultOutput:   defaultOutput != nil && info == defaultOutput,
			HostAPI:           hostAPI,
		})
	}
	return devices
}

// ValidateAudioDevice checks that the device with id can capture (input) or
// play (!input) mono audio.
func ValidateAudioDevice(devices []AudioDevice, id int, input bool) error {
	for _, d := range devices {
		if d.ID != id {
			continue
		}
		if input && !d.IsInput() {
			return NewAudioError(fmt.Sprintf("device '%s' is not an input device", d.Name))
		}
		if !input && !d.IsOutput() {
			return NewAudioError(fmt.Sprintf("device '%s' is not an output device", d.Name))
		}
		return nil
	}
	return NewAudioError(fmt.Sprintf("device with ID %d not found", id))
}
