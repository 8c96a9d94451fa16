package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/observability/logctx"
)

const (
	componentOrderService = "order_service"
	publishTimeout        = 300 * time.Millisecond
)

// Service exposes post-creation order operations: the lifecycle transition used
// by the admin collaborator, and reads. Order creation lives in the checkout
// use case.
type Service struct {
	repo      domain.Repository
	publisher domoutbox.Publisher
	log       observability.Logger
}

func NewService(repo domain.Repository, publisher domoutbox.Publisher, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       logger.With(observability.F("component", componentOrderService)),
	}
}

type UpdateStatusInput struct {
	OrderID  int64
	Status   domain.Status
	Override bool // administrative override permits backward transitions
}

func (s *Service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*domain.Order, error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("order_id", input.OrderID),
		observability.F("next_status", string(input.Status)),
	)

	entity, err := s.repo.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	from := entity.Status
	if err := entity.TransitionTo(input.Status, input.Override); err != nil {
		logger.Warn("order_status_transition_rejected",
			observability.F("from", string(from)),
			observability.F("error", err.Error()),
		)
		return nil, err
	}

	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, fmt.Errorf("order: update: %w", err)
	}

	if s.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		if pubErr := s.publisher.Publish(pubCtx, domain.NewOrderStatusChangedEvent(entity, from)); pubErr != nil {
			logger.Warn("order_status_event_publish_failed",
				observability.F("error", pubErr.Error()),
			)
		}
		cancel()
	}

	logger.Info("order_status_changed",
		observability.F("from", string(from)),
		observability.F("to", string(entity.Status)),
	)
	return entity, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, errors.New("order: id is required")
	}
	return s.repo.Get(ctx, id)
}
