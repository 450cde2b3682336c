package notify

import (
	"context"
	"errors"
	"testing"
)

type stubNotifier struct {
	id    string
	typ   string
	err   error
	calls int
}

func (s *stubNotifier) ID() string   { return s.id }
func (s *stubNotifier) Type() string { return s.typ }
func (s *stubNotifier) Send(context.Context, Notice) error {
	s.calls++
	return s.err
}

func TestFanoutSendAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Notifier{
		&stubNotifier{id: "ok", typ: "http"},
		&stubNotifier{id: "bad", typ: "http", err: errors.New("failed")},
	})

	count, err := fanout.Send(context.Background(), Notice{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
}

func TestFanoutDropsNilNotifiers(t *testing.T) {
	fanout := NewFanout([]Notifier{nil, &stubNotifier{id: "ok", typ: "log"}})
	if fanout.Size() != 1 {
		t.Fatalf("expected 1 notifier, got %d", fanout.Size())
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	notifiers, err := BuildAll(context.Background(), reg, []NotifierConfig{
		{ID: "hook", Type: TypeHTTP, HTTP: &HTTPWebhookConfig{URL: "https://example.com"}},
		{ID: "stdout", Type: TypeLog},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(notifiers) != 2 {
		t.Fatalf("expected 2 notifiers, got %d", len(notifiers))
	}
}

func TestBuildAllFailsOnUnknownType(t *testing.T) {
	reg := DefaultRegistry()
	if _, err := BuildAll(context.Background(), reg, []NotifierConfig{
		{ID: "x", Type: "carrier_pigeon"},
	}, nil); err == nil {
		t.Fatalf("expected error for unknown notifier type")
	}
}
