package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rafflelab/backend/internal/model"
	"github.com/rafflelab/backend/pkg/kafka"
	"github.com/rafflelab/backend/pkg/pubsub"
	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startSubscriber(*cli.Context) error {
	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	s.ctx = ctx

	if err := s.loadSettlement(); err != nil {
		return err
	}
	defer s.close()

	cfg := xcontext.Configs(s.ctx).Kafka
	subscriber, err := kafka.NewSubscriber(
		cfg.SubscriberGroup,
		[]string{cfg.Addr},
		[]string{cfg.PaymentEventTopic},
		s.handlePaymentEvent,
	)
	if err != nil {
		return err
	}
	defer subscriber.Stop(s.ctx)

	go s.startPrometheus(xcontext.Configs(s.ctx).PrometheusServer.Address())

	xcontext.Logger(s.ctx).Infof("Subscribed to %s", cfg.PaymentEventTopic)
	return subscriber.Subscribe(s.ctx)
}

// handlePaymentEvent confirms a card payment. Failed events are logged and
// dropped, the card processor redelivers them through the webhook.
func (s *srv) handlePaymentEvent(ctx context.Context, pack *pubsub.Pack, t time.Time) {
	var req model.ConfirmCardPaymentRequest
	if err := json.Unmarshal(pack.Msg, &req); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot decode payment event %s: %v", pack.Key, err)
		return
	}

	resp, err := s.paymentDomain.ConfirmCardPayment(ctx, &req)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot confirm payment event %s of %s: %v", req.EventID, req.Provider, err)
		return
	}

	xcontext.Logger(ctx).Infof("Payment event %s confirmed sale %s as %s (duplicated %t)",
		req.EventID, resp.Sale.ID, resp.Sale.PaymentStatus, resp.Duplicated)
}
