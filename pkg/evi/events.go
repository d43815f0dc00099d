package evi

import (
	"encoding/json"
	"fmt"
)

// EventType is the "type" discriminant of an inbound chat event.
type EventType string

const (
	EventChatMetadata     EventType = "chat_metadata"
	EventUserMessage      EventType = "user_message"
	EventAssistantMessage EventType = "assistant_message"
	EventAudioOutput      EventType = "audio_output"
	EventError            EventType = "error"
)

// Event is one message received on the chat socket. The set of
// implementations is closed: ChatMetadata, UserMessage, AssistantMessage,
// AudioOutput, ErrorEvent and UnknownEvent.
type Event interface {
	Type() EventType
	isEvent()
}

// ChatMetadata is sent once after the socket opens.
type ChatMetadata struct {
	ChatID      string `json:"chat_id"`
	ChatGroupID string `json:"chat_group_id"`
	RequestID   string `json:"request_id,omitempty"`
}

// ChatMessage is the transcript carried by user and assistant messages.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ProsodyInference holds per-utterance emotion scores.
type ProsodyInference struct {
	Scores *Scores `json:"scores"`
}

// Inference groups the expression model outputs of a message.
type Inference struct {
	Prosody *ProsodyInference `json:"prosody"`
}

// MessageEvent is the shared payload of user_message and assistant_message.
type MessageEvent struct {
	ID       string      `json:"id,omitempty"`
	Message  ChatMessage `json:"message"`
	Models   Inference   `json:"models"`
	FromText bool        `json:"from_text,omitempty"`
	Interim  bool        `json:"interim,omitempty"`
}

// ProsodyScores returns the prosody scores, or nil when the event has none.
func (m MessageEvent) ProsodyScores() *Scores {
	if m.Models.Prosody == nil {
		return nil
	}
	return m.Models.Prosody.Scores
}

type UserMessage struct {
	MessageEvent
}

type AssistantMessage struct {
	MessageEvent
}

// AudioOutput carries one chunk of base64 PCM16 assistant speech.
type AudioOutput struct {
	ID    string `json:"id,omitempty"`
	Index int    `json:"index"`
	Data  string `json:"data"`
}

// ErrorEvent is sent by the service before it gives up on the chat.
type ErrorEvent struct {
	Code    string `json:"code"`
	Slug    string `json:"slug,omitempty"`
	Message string `json:"message"`
}

// UnknownEvent is any event whose type is not handled above.
type UnknownEvent struct {
	Kind string
	Raw  json.RawMessage
}

func (ChatMetadata) Type() EventType     { return EventChatMetadata }
func (UserMessage) Type() EventType      { return EventUserMessage }
func (AssistantMessage) Type() EventType { return EventAssistantMessage }
func (AudioOutput) Type() EventType      { return EventAudioOutput }
func (ErrorEvent) Type() EventType       { return EventError }
func (e UnknownEvent) Type() EventType   { return EventType(e.Kind) }

func (ChatMetadata) isEvent()     {}
func (UserMessage) isEvent()      {}
func (AssistantMessage) isEvent() {}
func (AudioOutput) isEvent()      {}
func (ErrorEvent) isEvent()       {}
func (UnknownEvent) isEvent()     {}

// ParseEvent decodes a raw socket frame into its Event variant.
func ParseEvent(data []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, WrapError(err, "failed to decode event envelope", ErrCodeJSONParse)
	}

	switch EventType(envelope.Type) {
	case EventChatMetadata:
		return decodeEvent[ChatMetadata](data)
	case EventUserMessage:
		return decodeEvent[UserMessage](data)
	case EventAssistantMessage:
		return decodeEvent[AssistantMessage](data)
	case EventAudioOutput:
		return decodeEvent[AudioOutput](data)
	case EventError:
		return decodeEvent[ErrorEvent](data)
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return UnknownEvent{Kind: envelope.Type, Raw: raw}, nil
	}
}

func decodeEvent[T Event](data []byte) (Event, error) {
	var event T
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, WrapError(err, fmt.Sprintf("failed to decode %s event", event.Type()), ErrCodeJSONParse)
	}
	return event, nil
}
