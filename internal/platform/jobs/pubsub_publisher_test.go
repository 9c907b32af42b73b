package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/shoppie-mart/api/internal/domain"
	"github.com/shoppie-mart/api/internal/services"
)

func TestPubSubOrderPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubOrderPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubOrderPublisher: %v", err)
	}

	occurredAt := time.Date(2025, 5, 6, 9, 0, 0, 0, time.UTC)
	event := services.OrderEvent{
		Type:          "order.created",
		OrderID:       "ord_test",
		OrderNumber:   "SM-2025-000042",
		UserID:        "user-1",
		CurrentStatus: string(domain.OrderStatusPending),
		TotalAmount:   565,
		OccurredAt:    occurredAt,
	}

	if err := publisher.PublishOrderEvent(ctx, event); err != nil {
		t.Fatalf("PublishOrderEvent: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload services.OrderEvent
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderID != event.OrderID || payload.TotalAmount != event.TotalAmount {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["eventType"]; attr != "order.created" {
		t.Fatalf("expected event type attribute, got %q", attr)
	}
	if attr := messages[0].Attributes["orderNumber"]; attr != "SM-2025-000042" {
		t.Fatalf("expected order number attribute, got %q", attr)
	}
	if _, ok := messages[0].Attributes["previousStatus"]; ok {
		t.Fatalf("previous status attribute should not be present")
	}
}

func TestNewPubSubOrderPublisherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubOrderPublisher(nil); err == nil {
		t.Fatal("expected error for nil topic")
	}
}
