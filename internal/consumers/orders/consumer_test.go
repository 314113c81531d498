package orders

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/internal/commission"
	pkgerrors "github.com/rendasua/settlement-backend/pkg/errors"
	"github.com/rendasua/settlement-backend/pkg/logger"
)

type stubDistributor struct {
	result *commission.DistributionResult
	err    error

	calls []uuid.UUID
}

func (s *stubDistributor) Distribute(ctx context.Context, orderID uuid.UUID) (*commission.DistributionResult, error) {
	s.calls = append(s.calls, orderID)
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &commission.DistributionResult{OrderID: orderID}, nil
}

func buildMessage(t *testing.T, eventType string, orderID string) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(orderEvent{
		EventType:   eventType,
		OrderID:     orderID,
		OrderNumber: "RS-1001",
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return &pubsub.Message{ID: "m-1", Data: data}
}

func newTestConsumer(t *testing.T, service distributor) *Consumer {
	t.Helper()
	return &Consumer{
		service: service,
		logg:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
}

func TestProcessDistributesCompletedOrder(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	service := &stubDistributor{}
	c := newTestConsumer(t, service)

	result := c.process(context.Background(), buildMessage(t, eventOrderCompleted, orderID.String()))
	if result.nack {
		t.Fatalf("expected ack")
	}
	if len(service.calls) != 1 || service.calls[0] != orderID {
		t.Fatalf("expected one distribution for %s, got %v", orderID, service.calls)
	}
}

func TestProcessIgnoresOtherEvents(t *testing.T) {
	t.Parallel()

	service := &stubDistributor{}
	c := newTestConsumer(t, service)

	result := c.process(context.Background(), buildMessage(t, "order.created", uuid.NewString()))
	if result.nack {
		t.Fatalf("unhandled events should ack")
	}
	if len(service.calls) != 0 {
		t.Fatalf("unhandled events must not distribute")
	}
}

func TestProcessAcksPoisonPayloads(t *testing.T) {
	t.Parallel()

	service := &stubDistributor{}
	c := newTestConsumer(t, service)

	result := c.process(context.Background(), &pubsub.Message{ID: "m-2", Data: []byte("{not json")})
	if result.nack {
		t.Fatalf("malformed payloads should ack, not loop")
	}

	result = c.process(context.Background(), buildMessage(t, eventOrderCompleted, "not-a-uuid"))
	if result.nack {
		t.Fatalf("bad order ids should ack, not loop")
	}
	if len(service.calls) != 0 {
		t.Fatalf("no distribution expected for poison payloads")
	}
}

func TestProcessAcksAlreadyDistributed(t *testing.T) {
	t.Parallel()

	service := &stubDistributor{err: commission.ErrAlreadyDistributed}
	c := newTestConsumer(t, service)

	result := c.process(context.Background(), buildMessage(t, eventOrderCompleted, uuid.NewString()))
	if result.nack {
		t.Fatalf("already distributed is terminal and must ack")
	}
}

func TestProcessNacksRetryableOutcomes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
	}{
		{"lock held", commission.ErrDistributionInProgress},
		{"order not found yet", pkgerrors.New(pkgerrors.CodeNotFound, "order not found")},
		{"order not complete yet", pkgerrors.New(pkgerrors.CodeStateConflict, "order is delivered")},
		{"unexpected failure", errors.New("db down")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestConsumer(t, &stubDistributor{err: tc.err})
			result := c.process(context.Background(), buildMessage(t, eventOrderCompleted, uuid.NewString()))
			if !result.nack {
				t.Fatalf("expected nack for %s", tc.name)
			}
		})
	}
}
