package kafka

import (
	"context"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/rafflelab/backend/pkg/pubsub"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		require.Equal(t, []byte(`{"sale_id":"s1"}`), val)
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newPublisher("test", nil, producer)
	defer p.Stop(context.Background())

	err := p.Publish(context.Background(), "purchase_confirmed", &pubsub.Pack{
		Key: []byte("s1"),
		Msg: []byte(`{"sale_id":"s1"}`),
	})
	require.NoError(t, err)

	err = p.Publish(context.Background(), "purchase_confirmed", &pubsub.Pack{Msg: []byte("x")})
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}
