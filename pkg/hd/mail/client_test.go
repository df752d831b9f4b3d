package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type capturedRequest struct {
	path string
	auth string
	body map[string]any
}

func newTestClient(t *testing.T, status int, respBody string, got *capturedRequest) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.path = r.URL.Path
			got.auth = r.Header.Get("Authorization")
			if err := json.NewDecoder(r.Body).Decode(&got.body); err != nil {
				t.Errorf("cannot decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("re_test")
	if err := c.SetEndpoint(srv.URL + "/"); err != nil {
		t.Fatalf("SetEndpoint() error = %v", err)
	}
	return c
}

func TestClientSend(t *testing.T) {
	var got capturedRequest
	c := newTestClient(t, http.StatusOK, `{"id":"msg-123"}`, &got)

	id, err := c.Send(context.Background(), Message{
		From:    "helpdesk@example.com",
		To:      []string{"support@example.com"},
		ReplyTo: "user@example.com",
		Subject: "Helpdesk Ticket: parent | login",
		HTML:    "<p>hello</p>",
		Attachments: []Attachment{
			{Filename: "shot.png", Content: []byte("png-bytes")},
		},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if id != "msg-123" {
		t.Errorf("id = %q, want msg-123", id)
	}
	if got.path != "/emails" {
		t.Errorf("path = %q, want /emails", got.path)
	}
	if got.auth != "Bearer re_test" {
		t.Errorf("Authorization = %q", got.auth)
	}
	if got.body["reply_to"] != "user@example.com" {
		t.Errorf("reply_to = %v", got.body["reply_to"])
	}
	if got.body["html"] != "<p>hello</p>" || got.body["subject"] != "Helpdesk Ticket: parent | login" {
		t.Errorf("body = %v", got.body)
	}

	atts, ok := got.body["attachments"].([]any)
	if !ok || len(atts) != 1 {
		t.Fatalf("attachments = %v, want 1", got.body["attachments"])
	}
	att := atts[0].(map[string]any)
	if att["filename"] != "shot.png" {
		t.Errorf("filename = %v", att["filename"])
	}
	if att["content"] != base64.StdEncoding.EncodeToString([]byte("png-bytes")) {
		t.Errorf("attachment content not base64 encoded: %v", att["content"])
	}
}

func TestClientSendErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusUnprocessableEntity, `{"statusCode":422,"name":"validation_error","message":"invalid from"}`},
		{"server error", http.StatusInternalServerError, `{"statusCode":500,"message":"boom"}`},
		{"missing id", http.StatusOK, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.status, tt.body, nil)
			if _, err := c.Send(context.Background(), Message{From: "a@b.c", To: []string{"a@b.c"}}); err == nil {
				t.Error("Send() expected error")
			}
		})
	}
}

func TestClientNotConfigured(t *testing.T) {
	c := NewClient("")
	_, err := c.Send(context.Background(), Message{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Send() error = %v, want ErrNotConfigured", err)
	}
}
