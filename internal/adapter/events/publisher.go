package events

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
)

// Sink delivers one serialized event to the downstream bus.
type Sink func(ctx context.Context, payload []byte) error

// Publisher queues order-priced events and delivers them from a worker pool.
// Fire-and-forget: a full queue drops the event with a warning and a sink
// failure is logged, never propagated to the pricing request.
type Publisher struct {
	queue   chan domain.OrderPricedEvent
	sink    Sink
	logger  *zap.Logger
	wg      sync.WaitGroup
	closing sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewPublisher(sink Sink, queueSize, workers int, logger *zap.Logger) *Publisher {
	p := &Publisher{
		queue:  make(chan domain.OrderPricedEvent, queueSize),
		sink:   sink,
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.workerLoop(id)
		}(i)
	}
	return p
}

func (p *Publisher) PublishOrderPriced(_ context.Context, event domain.OrderPricedEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("publisher closed, dropping event",
			zap.String("order_id", event.OrderID))
		return
	}
	select {
	case p.queue <- event:
	default:
		p.logger.Warn("event queue full, dropping event",
			zap.String("order_id", event.OrderID))
	}
}

func (p *Publisher) workerLoop(id int) {
	for event := range p.queue {
		payload, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("failed to encode event",
				zap.Int("worker", id),
				zap.String("order_id", event.OrderID),
				zap.Error(err))
			continue
		}
		if err := p.sink(context.Background(), payload); err != nil {
			p.logger.Warn("failed to deliver event",
				zap.Int("worker", id),
				zap.String("order_id", event.OrderID),
				zap.Error(err))
		}
	}
}

// Close stops accepting events and waits for the workers to drain the queue.
func (p *Publisher) Close() {
	p.closing.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.queue)
	})
	p.wg.Wait()
}
