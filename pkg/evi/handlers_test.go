package evi

import (
	"context"
	"errors"
	"testing"
)

func TestSequentialMessageHandlers(t *testing.T) {
	var order []string
	record := func(name string, err error) MessageHandler {
		return func(context.Context, Event) error {
			order = append(order, name)
			return err
		}
	}

	stop := errors.New("stop")
	h := SequentialMessageHandlers(record("a", nil), nil, record("b", stop), record("c", nil))

	if err := h(context.Background(), UnknownEvent{Kind: "x"}); !errors.Is(err, stop) {
		t.Errorf("err = %v, want stop", err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("ran %v, want [a b]", order)
	}
}

func TestCreateEventTypeFilter(t *testing.T) {
	var got []EventType
	h := CreateEventTypeFilter(func(_ context.Context, e Event) error {
		got = append(got, e.Type())
		return nil
	}, EventAudioOutput, EventError)

	for _, e := range []Event{ChatMetadata{}, AudioOutput{}, UnknownEvent{Kind: "ping"}, ErrorEvent{}} {
		if err := h(context.Background(), e); err != nil {
			t.Fatal(err)
		}
	}
	if len(got) != 2 || got[0] != EventAudioOutput || got[1] != EventError {
		t.Errorf("filter passed %v", got)
	}
}

func TestCreateTranscriptHandler(t *testing.T) {
	type line struct {
		role, content string
		top           string
	}
	var got []line
	h := CreateTranscriptHandler(func(role, content string, scores *Scores) {
		got = append(got, line{role, content, FormatEmotions(TopN(scores, 1))})
	})

	events := []Event{
		UserMessage{MessageEvent{
			Message: ChatMessage{Role: "user", Content: "hi"},
			Models:  Inference{Prosody: &ProsodyInference{Scores: NewScores(EmotionScore{"Joy", 0.4}, EmotionScore{"Awe", 0.6})}},
		}},
		AudioOutput{},
		AssistantMessage{MessageEvent{Message: ChatMessage{Role: "assistant", Content: "hello"}}},
	}
	for _, e := range events {
		if err := h(context.Background(), e); err != nil {
			t.Fatal(err)
		}
	}

	want := []line{{"user", "hi", "Awe (0.60)"}, {"assistant", "hello", ""}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCreateDebugHandler(t *testing.T) {
	h := CreateDebugHandler(NopLogger())
	for _, e := range []Event{ChatMetadata{}, UserMessage{}, AssistantMessage{}, AudioOutput{}, ErrorEvent{}, UnknownEvent{}} {
		if err := h(context.Background(), e); err != nil {
			t.Errorf("debug handler returned %v for %T", err, e)
		}
	}
}
