package testutil

import (
	"context"
	"sync"

	"github.com/rafflelab/backend/pkg/pubsub"
)

// MockPublisher records every published pack. PublishFunc, when set, decides
// the result of Publish.
type MockPublisher struct {
	mu sync.Mutex

	PublishFunc func(context.Context, string, *pubsub.Pack) error
	Published   map[string][]*pubsub.Pack
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, pack *pubsub.Pack) error {
	if m.PublishFunc != nil {
		if err := m.PublishFunc(ctx, topic, pack); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Published == nil {
		m.Published = map[string][]*pubsub.Pack{}
	}
	m.Published[topic] = append(m.Published[topic], pack)
	return nil
}

func (m *MockPublisher) Packs(topic string) []*pubsub.Pack {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Published[topic]
}
