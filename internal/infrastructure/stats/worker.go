package stats

import (
	"context"

	domorder "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/outbox"
	domrating "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/rating"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/observability"
)

// Worker subscribes to business events and maintains the shop-level counters.
// It is deliberately read-only: all state mutation happens in the use cases.
type Worker struct {
	subscriber domoutbox.Subscriber
	log        observability.Logger

	ordersPlaced  observability.Counter
	statusChanges observability.Counter
	submitted     observability.Counter
	removed       observability.Counter
}

func New(subscriber domoutbox.Subscriber, tel observability.Observability) *Worker {
	baseLog := observability.NopLogger()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		metricsProvider = tel.Metrics()
	}

	return &Worker{
		subscriber:    subscriber,
		log:           baseLog.With(observability.F("component", "stats_worker")),
		ordersPlaced:  metricsProvider.Counter(observability.MOrdersPlaced),
		statusChanges: metricsProvider.Counter(observability.MOrderStatusChanges),
		submitted:     metricsProvider.Counter(observability.MRatingsSubmitted),
		removed:       metricsProvider.Counter(observability.MRatingsRemoved),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domorder.OrderPlacedEvent{}.EventName(), w.handleOrderPlaced)
	w.subscriber.Subscribe(domorder.OrderStatusChangedEvent{}.EventName(), w.handleStatusChanged)
	w.subscriber.Subscribe(domrating.RatingSubmittedEvent{}.EventName(), w.handleRatingSubmitted)
	w.subscriber.Subscribe(domrating.RatingRemovedEvent{}.EventName(), w.handleRatingRemoved)
}

func (w *Worker) handleOrderPlaced(ctx context.Context, e domoutbox.Event) error {
	_ = ctx
	evt, ok := e.(domorder.OrderPlacedEvent)
	if !ok {
		return nil
	}
	w.ordersPlaced.Add(1)
	w.log.Info("order_placed",
		observability.F("order_id", evt.OrderID),
		observability.F("reference", evt.Reference),
		observability.F("lines", evt.LineCount),
		observability.F("total", evt.Total),
	)
	return nil
}

func (w *Worker) handleStatusChanged(ctx context.Context, e domoutbox.Event) error {
	_ = ctx
	evt, ok := e.(domorder.OrderStatusChangedEvent)
	if !ok {
		return nil
	}
	w.statusChanges.Add(1, observability.L("to", string(evt.To)))
	return nil
}

func (w *Worker) handleRatingSubmitted(ctx context.Context, e domoutbox.Event) error {
	_ = ctx
	evt, ok := e.(domrating.RatingSubmittedEvent)
	if !ok {
		return nil
	}
	outcome := "created"
	if evt.Replaced {
		outcome = "updated"
	}
	w.submitted.Add(1, observability.L("kind", outcome))
	return nil
}

func (w *Worker) handleRatingRemoved(ctx context.Context, e domoutbox.Event) error {
	_ = ctx
	if _, ok := e.(domrating.RatingRemovedEvent); !ok {
		return nil
	}
	w.removed.Add(1)
	return nil
}
