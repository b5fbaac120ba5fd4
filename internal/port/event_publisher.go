package port

import (
	"context"

	"github.com/Imanilom/baraja-coffe-sub000/internal/core/domain"
)

type EventPublisher interface {
	// PublishOrderPriced hands the event off for asynchronous delivery.
	// Fire-and-forget: a full queue or a downstream failure must never fail
	// the pricing request.
	PublishOrderPriced(ctx context.Context, event domain.OrderPricedEvent)
}
