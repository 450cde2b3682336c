package notify

import (
	"os"
	"path/filepath"
	"testing"
)

const notifiersYAML = `notifiers:
  - id: stdout
    type: log
  - id: webhook
    type: http
    enabled: false
    http:
      url: https://hooks.example.com/events
      method: post
      headers:
        Authorization: "Bearer token "
  - id: queue
    type: sqs
    sqs:
      uri: " https://sqs.eu-central-1.amazonaws.com/123/events "
      region: eu-central-1
`

func writeNotifiersFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notifiers.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write notifiers file: %v", err)
	}
	return path
}

func TestLoadRegistrySanitizesEntries(t *testing.T) {
	reg, err := LoadRegistry(writeNotifiersFile(t, notifiersYAML))
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 notifiers, got %d", len(all))
	}

	webhook := all[1]
	if webhook.HTTP.Method != "POST" {
		t.Errorf("method not normalized: %q", webhook.HTTP.Method)
	}
	if webhook.HTTP.TimeoutSeconds <= 0 {
		t.Errorf("timeout default not applied: %d", webhook.HTTP.TimeoutSeconds)
	}
	if got := webhook.HTTP.Headers["Authorization"]; got != "Bearer token" {
		t.Errorf("header not trimmed: %q", got)
	}

	queue := all[2]
	if queue.SQS.QueueURL != "https://sqs.eu-central-1.amazonaws.com/123/events" {
		t.Errorf("queue url not trimmed: %q", queue.SQS.QueueURL)
	}

	enabled := reg.Enabled()
	if len(enabled) != 2 {
		t.Fatalf("expected 2 enabled notifiers, got %d", len(enabled))
	}
	for _, cfg := range enabled {
		if cfg.ID == "webhook" {
			t.Fatal("disabled notifier returned by Enabled")
		}
	}
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	dup := `notifiers:
  - id: stdout
    type: log
  - id: stdout
    type: log
`
	if _, err := LoadRegistry(writeNotifiersFile(t, dup)); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing id", "notifiers:\n  - type: log\n"},
		{"missing type", "notifiers:\n  - id: x\n"},
		{"unsupported type", "notifiers:\n  - id: x\n    type: smoke_signal\n"},
		{"http without url", "notifiers:\n  - id: x\n    type: http\n"},
		{"sqs without uri", "notifiers:\n  - id: x\n    type: sqs\n    sqs:\n      region: eu-central-1\n"},
		{"sns without arn", "notifiers:\n  - id: x\n    type: sns\n    sns:\n      region: eu-central-1\n"},
		{"pubsub without topic", "notifiers:\n  - id: x\n    type: gcp_pubsub\n    pubsub:\n      project_id: p1\n"},
		{"empty file", "notifiers: []\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadRegistry(writeNotifiersFile(t, tc.yaml)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
