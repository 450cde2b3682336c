package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/domain"
)

func TestHTTPNotifierSuccess(t *testing.T) {
	var received bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Fatalf("missing header, got %s", got)
		}
		received = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier, err := newHTTPNotifier(context.Background(), NotifierConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPWebhookConfig{
			URL:            srv.URL,
			Method:         http.MethodPost,
			Headers:        map[string]string{"X-Test": "1"},
			TimeoutSeconds: 2,
		},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPNotifier: %v", err)
	}

	notice := NewNotice("eventim.pl", "Eventim PL", domain.Event{Artist: "Amelie Lens", Title: "Exhale"})
	if err := notifier.Send(context.Background(), notice); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !received {
		t.Fatalf("server did not receive request")
	}
}

func TestHTTPNotifierErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	notifier, err := newHTTPNotifier(context.Background(), NotifierConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPWebhookConfig{
			URL:            srv.URL,
			Method:         http.MethodPost,
			TimeoutSeconds: 1,
		},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPNotifier: %v", err)
	}

	if err := notifier.Send(context.Background(), Notice{}); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}
