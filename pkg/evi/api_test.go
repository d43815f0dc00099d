package evi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIClientListConfigs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/evi/configs" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Hume-Api-Key"); got != "key" {
			t.Errorf("X-Hume-Api-Key = %q", got)
		}
		if q := r.URL.Query(); q.Get("page_number") != "1" || q.Get("page_size") != "5" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"page_number":1,"page_size":5,"total_pages":2,"configs_page":[
			{"id":"cfg-1","version":3,"name":"Support","created_on":1700000000000}
		]}`))
	}))
	defer srv.Close()

	result := NewAPIClient(srv.URL, "key").ListConfigs(context.Background(), 1, 5)
	if !result.Success {
		t.Fatalf("ListConfigs() error = %v", result.Error)
	}
	page := result.Data
	if page.TotalPages != 2 || len(page.Configs) != 1 {
		t.Fatalf("page = %+v", page)
	}
	if c := page.Configs[0]; c.ID != "cfg-1" || c.Version != 3 || c.Name != "Support" {
		t.Errorf("config = %+v", c)
	}
}

func TestAPIClientListChats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/v0/evi/chats" || q.Get("ascending_order") != "false" {
			t.Errorf("request = %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		// Out of range paging falls back to defaults.
		if q.Get("page_number") != "0" || q.Get("page_size") != "10" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"page_number":0,"page_size":10,"total_pages":1,"chats_page":[
			{"id":"chat-1","chat_group_id":"grp-1","status":"COMPLETED","start_timestamp":1700000000000}
		]}`))
	}))
	defer srv.Close()

	result := NewAPIClient(srv.URL, "key").ListChats(context.Background(), -4, 500)
	if !result.Success {
		t.Fatalf("ListChats() error = %v", result.Error)
	}
	if len(result.Data.Chats) != 1 || result.Data.Chats[0].ChatGroupID != "grp-1" {
		t.Errorf("chats = %+v", result.Data.Chats)
	}
}

func TestAPIClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
	}{
		{"unauthorized", http.StatusUnauthorized, "invalid key", ErrCodeAuthFailed},
		{"forbidden", http.StatusForbidden, "", ErrCodeAuthFailed},
		{"server error", http.StatusInternalServerError, "boom", "HTTP_500"},
		{"bad json", http.StatusOK, "{", ErrCodeJSONParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			result := NewAPIClient(srv.URL, "key").ListConfigs(context.Background(), 0, 10)
			if result.Success {
				t.Fatal("expected failure")
			}
			if result.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", result.Error.Code, tt.code)
			}
		})
	}
}
