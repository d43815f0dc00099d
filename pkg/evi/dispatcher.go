package evi

import (
	"context"
	"encoding/base64"
	"fmt"
)

// emotionSummarySize is how many prosody scores are printed per message.
const emotionSummarySize = 3

// OnMessage handles one inbound event. The transport calls it sequentially,
// so playback of one audio_output holds back the next event. An error event
// is returned as *RemoteServiceError and ends the session.
func (s *Session) OnMessage(ctx context.Context, event Event) error {
	s.logger.LogMessageEvent(string(event.Type()), nil)

	switch e := event.(type) {
	case ChatMetadata:
		s.console.Log(fmt.Sprintf("<%s> Chat ID: %s, Chat Group ID: %s", e.Type(), e.ChatID, e.ChatGroupID))

	case UserMessage:
		s.printTranscript(e.MessageEvent)

	case AssistantMessage:
		s.printTranscript(e.MessageEvent)

	case AudioOutput:
		return s.playAudio(ctx, e)

	case ErrorEvent:
		return &RemoteServiceError{Code: e.Code, Slug: e.Slug, Message: e.Message}

	default:
		s.console.Log(fmt.Sprintf("<%s>", event.Type()))
	}

	return nil
}

func (s *Session) printTranscript(m MessageEvent) {
	s.console.Log(fmt.Sprintf("%s: %s", m.Message.Role, m.Message.Content))
	s.console.Emotions(TopN(m.ProsodyScores(), emotionSummarySize))
}

// playAudio decodes the chunk once, queues the raw bytes on the session byte
// stream for the microphone's speech gate and plays the samples locally.
func (s *Session) playAudio(ctx context.Context, e AudioOutput) error {
	audio, err := base64.StdEncoding.DecodeString(e.Data)
	if err != nil {
		return fmt.Errorf("decoding audio_output %d: %w", e.Index, err)
	}

	if stream := s.ByteStream(); stream != nil {
		if err := stream.Put(ctx, audio); err != nil {
			return fmt.Errorf("queueing audio_output %d: %w", e.Index, err)
		}
	}

	samples, err := DecodePCM16(audio)
	if err != nil {
		return err
	}

	s.logger.LogAudioEvent("playback", map[string]interface{}{
		"index":       e.Index,
		"samples":     len(samples),
		"sample_rate": PlaybackSampleRate,
	})

	if s.player == nil {
		return NewPlaybackError("no audio player configured")
	}
	return s.player.Play(samples, PlaybackSampleRate)
}
