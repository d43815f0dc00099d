package evi

import (
	"encoding/binary"
	"fmt"
)

const (
	// PlaybackSampleRate is the rate EVI synthesizes audio_output at.
	PlaybackSampleRate = 16000
	// EncodingLinear16 is 16-bit signed little-endian PCM.
	EncodingLinear16 = "linear16"
)

// DecodePCM16 reinterprets little-endian bytes as 16-bit signed samples.
func DecodePCM16(audio []byte) ([]int16, error) {
	if len(audio)%2 != 0 {
		return nil, fmt.Errorf("pcm16 buffer has odd length %d", len(audio))
	}
	samples := make([]int16, len(audio)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(audio[i*2:]))
	}
	return samples, nil
}

// EncodePCM16 is the inverse of DecodePCM16.
func EncodePCM16(samples []int16) []byte {
	audio := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(audio[i*2:], uint16(s))
	}
	return audio
}

// PCM16Duration is how long n bytes of mono PCM16 take to play.
func PCM16Duration(n int, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(n/2) / float64(sampleRate)
}
