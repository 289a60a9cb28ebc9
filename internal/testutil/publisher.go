package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// Publisher is a testify mock of events.Publisher.
type Publisher struct {
	mock.Mock
	mu sync.Mutex
}

func (p *Publisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Called(ctx, topic, key, payload).Error(0)
}

func (p *Publisher) Close() error {
	return nil
}

// AcceptAll makes every Publish call succeed.
func (p *Publisher) AcceptAll() *Publisher {
	p.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return p
}
