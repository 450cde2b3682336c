package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// gcpPubSubSender implements the Notifier interface for Google Pub/Sub.
type gcpPubSubSender struct {
	id    string
	typ   string
	topic *pubsub.Topic
	log   Logger
}

func newGCPPubSubSenderBuilder(ctx context.Context, cfg NotifierConfig, log Logger) (Notifier, error) {
	if cfg.PubSub == nil {
		return nil, fmt.Errorf("notifier %q missing pubsub configuration", cfg.ID)
	}
	sender, err := newGCPPubSubSender(ctx, cfg.PubSub, log)
	if err != nil {
		return nil, err
	}
	sender.id = cfg.ID
	return sender, nil
}

func newGCPPubSubSender(ctx context.Context, cfg *GCPTopicConfig, log Logger) (*gcpPubSubSender, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &gcpPubSubSender{
		typ:   TypePubSub,
		topic: client.Topic(cfg.Topic),
		log:   ensureLogger(log),
	}, nil
}

func (g *gcpPubSubSender) ID() string   { return g.id }
func (g *gcpPubSubSender) Type() string { return g.typ }

// Send publishes the notice to the configured topic and waits for the server ack.
func (g *gcpPubSubSender) Send(ctx context.Context, notice Notice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}

	result := g.topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"source_id": notice.SourceID,
			"artist":    notice.Event.Artist,
		},
	})

	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("pubsub publish: %w", err)
	}

	g.log.DebugObj("notice sent to pubsub", "pubsub_result", map[string]any{
		"notifier_id": g.id,
		"message_id":  id,
	})
	return nil
}
