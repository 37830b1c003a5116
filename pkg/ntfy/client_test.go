package ntfy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/my topic" {
			t.Errorf("Expected path '/my topic', got %q", r.URL.Path)
		}
		if r.Header.Get("Title") != "Task still open" {
			t.Errorf("Expected Title header, got %q", r.Header.Get("Title"))
		}
		if r.Header.Get("Tags") != "warning" {
			t.Errorf("Expected Tags 'warning', got %q", r.Header.Get("Tags"))
		}
		b, _ := io.ReadAll(r.Body)
		if string(b) != "Task: Laundry" {
			t.Errorf("Expected body 'Task: Laundry', got %q", b)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	err := c.Publish(context.Background(), Message{
		Topic: "my topic",
		Title: "Task still open",
		Tags:  []string{"warning"},
		Body:  "Task: Laundry",
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
}

func TestPublishFailureIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, "limit reached")
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	err := c.Publish(context.Background(), Message{Topic: "t", Body: "x"})

	var ntfyErr *Error
	if !errors.As(err, &ntfyErr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if ntfyErr.Status != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", ntfyErr.Status)
	}
	if !strings.Contains(err.Error(), "limit reached") {
		t.Errorf("Expected error to contain body, got %q", err.Error())
	}
}

func TestPublishRequiresTopic(t *testing.T) {
	if err := NewClient(nil, "").Publish(context.Background(), Message{}); err == nil {
		t.Error("Expected error for empty topic")
	}
}
