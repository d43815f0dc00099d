package evi

import (
	"context"
)

// CreateDebugHandler logs every event type through logger at debug level.
func CreateDebugHandler(logger *Logger) MessageHandler {
	return func(_ context.Context, event Event) error {
		fields := map[string]interface{}{}
		switch e := event.(type) {
		case ChatMetadata:
			fields["chat_id"] = e.ChatID
			fields["chat_group_id"] = e.ChatGroupID
		case UserMessage:
			fields["role"] = e.Message.Role
			fields["content_length"] = len(e.Message.Content)
		case AssistantMessage:
			fields["role"] = e.Message.Role
			fields["content_length"] = len(e.Message.Content)
		case AudioOutput:
			fields["index"] = e.Index
			fields["data_length"] = len(e.Data)
		case ErrorEvent:
			fields["code"] = e.Code
		}
		logger.LogMessageEvent(string(event.Type()), fields)
		return nil
	}
}

// CreateTranscriptHandler calls callback for every user and assistant
// message with its full prosody scores.
func CreateTranscriptHandler(callback func(role, content string, scores *Scores)) MessageHandler {
	return func(_ context.Context, event Event) error {
		switch e := event.(type) {
		case UserMessage:
			callback(e.Message.Role, e.Message.Content, e.ProsodyScores())
		case AssistantMessage:
			callback(e.Message.Role, e.Message.Content, e.ProsodyScores())
		}
		return nil
	}
}

// CreateEventTypeFilter passes only events of the given types to handler.
func CreateEventTypeFilter(handler MessageHandler, types ...EventType) MessageHandler {
	return func(ctx context.Context, event Event) error {
		for _, t := range types {
			if event.Type() == t {
				return handler(ctx, event)
			}
		}
		return nil
	}
}

// SequentialMessageHandlers runs handlers in order and stops at the first
// error.
func SequentialMessageHandlers(handlers ...MessageHandler) MessageHandler {
	return func(ctx context.Context, event Event) error {
		for _, h := range handlers {
			if h == nil {
				continue
			}
			if err := h(ctx, event); err != nil {
				return err
			}
		}
		return nil
	}
}
