package inmemorygateway

import (
	"context"
	"sync"

	"github.com/sanchit-4/universal-nft/internal/core/domain"
)

// Transport keeps emitted messages in memory. It serves local setups where no relayer runs.
type Transport struct {
	lock     *sync.RWMutex
	messages []domain.CrossChainMessage
	failWith error
}

func NewTransport() *Transport {
	return &Transport{
		lock:     &sync.RWMutex{},
		messages: make([]domain.CrossChainMessage, 0),
	}
}

func (t *Transport) Send(_ context.Context, msg domain.CrossChainMessage) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.failWith != nil {
		return t.failWith
	}
	t.messages = append(t.messages, msg)
	return nil
}

// Messages returns a copy of the emitted messages in emission order.
func (t *Transport) Messages() []domain.CrossChainMessage {
	t.lock.RLock()
	defer t.lock.RUnlock()

	messages := make([]domain.CrossChainMessage, len(t.messages))
	copy(messages, t.messages)
	return messages
}

// FailWith makes every following Send return err. A nil err restores delivery.
func (t *Transport) FailWith(err error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.failWith = err
}

func (t *Transport) Close() {}
