package evi

import (
	"reflect"
	"testing"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Event
	}{
		{
			name: "chat metadata",
			in:   `{"type":"chat_metadata","chat_id":"c1","chat_group_id":"g1","request_id":"r1"}`,
			want: ChatMetadata{ChatID: "c1", ChatGroupID: "g1", RequestID: "r1"},
		},
		{
			name: "audio output",
			in:   `{"type":"audio_output","id":"a1","index":4,"data":"AQACAA=="}`,
			want: AudioOutput{ID: "a1", Index: 4, Data: "AQACAA=="},
		},
		{
			name: "error",
			in:   `{"type":"error","code":"E001","slug":"unauthorized","message":"bad token"}`,
			want: ErrorEvent{Code: "E001", Slug: "unauthorized", Message: "bad token"},
		},
		{
			name: "unknown",
			in:   `{"type":"user_interruption","time":12}`,
			want: UnknownEvent{Kind: "user_interruption", Raw: []byte(`{"type":"user_interruption","time":12}`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvent([]byte(tt.in))
			if err != nil {
				t.Fatalf("ParseEvent() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseEvent() = %#v, want %#v", got, tt.want)
			}
			if got.Type() != tt.want.Type() {
				t.Errorf("Type() = %q, want %q", got.Type(), tt.want.Type())
			}
		})
	}
}

func TestParseEventMessages(t *testing.T) {
	in := `{"type":"assistant_message","id":"m1","message":{"role":"assistant","content":"Hi!"},` +
		`"models":{"prosody":{"scores":{"Calmness":0.2,"Joy":0.41,"Anger":0.01}}}}`

	event, err := ParseEvent([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	msg, ok := event.(AssistantMessage)
	if !ok {
		t.Fatalf("got %T, want AssistantMessage", event)
	}
	if msg.Message.Role != "assistant" || msg.Message.Content != "Hi!" || msg.ID != "m1" {
		t.Errorf("unexpected message %+v", msg.MessageEvent)
	}

	want := []EmotionScore{{"Calmness", 0.2}, {"Joy", 0.41}, {"Anger", 0.01}}
	if got := Entries(msg.ProsodyScores()); !reflect.DeepEqual(got, want) {
		t.Errorf("scores = %v, want wire order %v", got, want)
	}
}

func TestParseEventWithoutProsody(t *testing.T) {
	event, err := ParseEvent([]byte(`{"type":"user_message","message":{"role":"user","content":"hello"},"models":{}}`))
	if err != nil {
		t.Fatal(err)
	}
	msg, ok := event.(UserMessage)
	if !ok {
		t.Fatalf("got %T, want UserMessage", event)
	}
	if msg.ProsodyScores() != nil {
		t.Errorf("ProsodyScores() = %v, want nil", msg.ProsodyScores())
	}
	if got := FormatEmotions(TopN(msg.ProsodyScores(), 3)); got != "" {
		t.Errorf("summary = %q, want empty", got)
	}
}

func TestParseEventInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `not json`},
		{"wrong field type", `{"type":"audio_output","index":"four"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent([]byte(tt.in))
			if !IsErrorCode(err, ErrCodeJSONParse) {
				t.Errorf("ParseEvent() error = %v, want %s", err, ErrCodeJSONParse)
			}
		})
	}
}
