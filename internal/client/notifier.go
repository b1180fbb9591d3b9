package client

import (
	"context"
	"encoding/json"

	"github.com/rafflelab/backend/internal/model"
	"github.com/rafflelab/backend/pkg/pubsub"
)

type Notifier interface {
	NotifyPurchase(ctx context.Context, n model.PurchaseNotification) error
	NotifyWinner(ctx context.Context, n model.WinnerNotification) error
}

type pubsubNotifier struct {
	publisher     pubsub.Publisher
	purchaseTopic string
	winnerTopic   string
}

func NewPubsubNotifier(publisher pubsub.Publisher, purchaseTopic, winnerTopic string) *pubsubNotifier {
	return &pubsubNotifier{
		publisher:     publisher,
		purchaseTopic: purchaseTopic,
		winnerTopic:   winnerTopic,
	}
}

func (n *pubsubNotifier) NotifyPurchase(ctx context.Context, msg model.PurchaseNotification) error {
	return n.publish(ctx, n.purchaseTopic, msg.SaleID, msg)
}

func (n *pubsubNotifier) NotifyWinner(ctx context.Context, msg model.WinnerNotification) error {
	return n.publish(ctx, n.winnerTopic, msg.RaffleID, msg)
}

func (n *pubsubNotifier) publish(ctx context.Context, topic, key string, msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return n.publisher.Publish(ctx, topic, &pubsub.Pack{Key: []byte(key), Msg: b})
}

type noopNotifier struct{}

// NewNoopNotifier returns a notifier that drops every message, used when no
// broker is configured.
func NewNoopNotifier() *noopNotifier {
	return &noopNotifier{}
}

func (noopNotifier) NotifyPurchase(context.Context, model.PurchaseNotification) error { return nil }
func (noopNotifier) NotifyWinner(context.Context, model.WinnerNotification) error     { return nil }
