package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/domain"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-456")}, nil
}

func TestAWSSNSSenderSendSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	sender := &awsSNSSender{
		topicARN: "arn:aws:sns:eu-central-1:123456789:events",
		client:   client,
		log:      noopLogger{},
	}

	notice := NewNotice("eventim.de", "Eventim DE", domain.Event{
		Artist: "Boris Brejcha",
		Title:  "Fckng Serious",
	})
	if err := sender.Send(context.Background(), notice); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:eu-central-1:123456789:events" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["artist"]
	if !ok || attr.StringValue == nil || aws.ToString(attr.StringValue) != "Boris Brejcha" {
		t.Fatalf("artist attribute missing or wrong: %#v", attr)
	}
}

func TestAWSSNSSenderSendError(t *testing.T) {
	client := &fakeSNSClient{err: errors.New("boom")}
	sender := &awsSNSSender{
		topicARN: "arn:aws:sns:eu-central-1:123456789:events",
		client:   client,
		log:      noopLogger{},
	}

	if err := sender.Send(context.Background(), Notice{SourceID: "eventim.de"}); err == nil {
		t.Fatalf("expected error from Send")
	}
}
