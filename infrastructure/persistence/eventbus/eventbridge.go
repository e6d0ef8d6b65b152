package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"beliefgraph/application/ports"
	"beliefgraph/domain/events"
)

const eventSource = "beliefgraph.compiler"

// EventBridgePublisher fans the change stream out to an AWS EventBridge
// bus, for deployments where something other than this process consumes
// it (a search indexer, a notification service).
type EventBridgePublisher struct {
	client       *eventbridge.Client
	eventBusName string
	log          *zap.Logger
}

// NewEventBridgePublisher constructs a publisher bound to one event bus.
func NewEventBridgePublisher(client *eventbridge.Client, eventBusName string, log *zap.Logger) *EventBridgePublisher {
	return &EventBridgePublisher{client: client, eventBusName: eventBusName, log: log}
}

func (p *EventBridgePublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events to EventBridge in batches of at most 10, the
// service's PutEvents limit.
func (p *EventBridgePublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	const batchSize = 10
	for i := 0; i < len(evts); i += batchSize {
		end := i + batchSize
		if end > len(evts) {
			end = len(evts)
		}
		if err := p.publishBatch(ctx, evts[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *EventBridgePublisher) publishBatch(ctx context.Context, evts []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(evts))
	for _, event := range evts {
		data, err := json.Marshal(event)
		if err != nil {
			if p.log != nil {
				p.log.Error("failed to marshal event", zap.Error(err), zap.String("event_type", event.GetEventType()))
			}
			continue
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(eventSource),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(data)),
			Time:         aws.Time(event.GetTimestamp()),
			Resources:    []string{fmt.Sprintf("bid:%s", event.GetAggregateID())},
		})
	}
	if len(entries) == 0 {
		return nil
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("eventbus: publish to eventbridge: %w", err)
	}
	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil && p.log != nil {
				p.log.Error("event publish failed",
					zap.String("event_type", evts[i].GetEventType()),
					zap.String("error_code", *entry.ErrorCode),
					zap.String("error_message", aws.ToString(entry.ErrorMessage)))
			}
		}
		return fmt.Errorf("eventbus: %d events failed to publish", result.FailedEntryCount)
	}
	return nil
}

var _ ports.EventPublisher = (*EventBridgePublisher)(nil)
