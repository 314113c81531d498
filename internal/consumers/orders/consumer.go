package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/internal/commission"
	pkgerrors "github.com/rendasua/settlement-backend/pkg/errors"
	"github.com/rendasua/settlement-backend/pkg/logger"
)

const eventOrderCompleted = "order.completed"

type distributor interface {
	Distribute(ctx context.Context, orderID uuid.UUID) (*commission.DistributionResult, error)
}

// orderEvent is the envelope published on the order events topic.
type orderEvent struct {
	EventType   string    `json:"event_type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Consumer settles commissions when an order completion event arrives.
type Consumer struct {
	service      distributor
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer constructs a consumer that watches the provided subscription.
func NewConsumer(service distributor, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if service == nil {
		return nil, errors.New("commission service is required")
	}
	if subscription == nil {
		return nil, errors.New("order events subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		service:      service,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
	})

	var event orderEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal order event", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_type":   event.EventType,
		"order_id":     event.OrderID,
		"order_number": event.OrderNumber,
	})

	if event.EventType != eventOrderCompleted {
		c.logg.Info(logCtx, "skipping event not handled by settlement")
		return processResult{ack: true}
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		c.logg.Error(logCtx, "order event carries invalid order id", err)
		return processResult{ack: true}
	}

	result, err := c.service.Distribute(logCtx, orderID)
	if err != nil {
		return c.handleDistributeError(logCtx, err)
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"distribution_id": result.DistributionID,
		"executed":        len(result.Executed),
		"skipped":         len(result.Skipped),
	}), "order commissions distributed")
	return processResult{ack: true}
}

// handleDistributeError separates terminal outcomes from ones worth a
// redelivery. A settled order is done; most everything else may still resolve
// once the order row or a lock holder catches up.
func (c *Consumer) handleDistributeError(ctx context.Context, err error) processResult {
	if errors.Is(err, commission.ErrAlreadyDistributed) {
		c.logg.Info(ctx, "order commissions already distributed")
		return processResult{ack: true}
	}
	if errors.Is(err, commission.ErrDistributionInProgress) {
		c.logg.Warn(ctx, "distribution lock held elsewhere, retrying later")
		return processResult{nack: true}
	}

	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeNotFound, pkgerrors.CodeStateConflict:
			// Event raced ahead of the order row; redeliver until it lands.
			c.logg.Warn(ctx, "order not settleable yet, retrying later")
			return processResult{nack: true}
		}
	}

	c.logg.Error(ctx, "commission distribution failed", err)
	return processResult{nack: true}
}
