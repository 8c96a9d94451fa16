package rating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/catalog"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/rating"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/sequence"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	ratingService       = "rating-service"
	useCaseSubmitRating = "rating.submit"
	useCaseRemoveRating = "rating.remove"
	spanPrefix          = "UC."
	publishTimeout      = 300 * time.Millisecond
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrRepository = errors.New("rating: repository failure")
)

// Maintainer keeps each product's rating aggregate in lockstep with the stored
// ratings. The repository's Swap/Remove return the prior rating atomically, so
// the aggregate delta applied to the product is exact even when users race on
// the same product.
type Maintainer struct {
	ratings  domain.Repository
	products catalog.Repository
	seq      sequence.Allocator

	publisher domoutbox.Publisher
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewMaintainer(
	ratings domain.Repository,
	products catalog.Repository,
	seq sequence.Allocator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *Maintainer {
	baseLog := observability.NopLogger()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		metricsProvider = tel.Metrics()
	}
	baseLog = baseLog.With(
		observability.F("service", ratingService),
	)

	return &Maintainer{
		ratings:      ratings,
		products:     products,
		seq:          seq,
		publisher:    publisher,
		tel:          tel,
		log:          baseLog,
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
	}
}

type SubmitInput struct {
	UserID    string
	ProductID int64
	Value     int
	Text      string
}

// Submit inserts or replaces the user's rating for a product and adjusts the
// product aggregate by the exact delta: (+value, +1) on insert,
// (value-old, 0) on replace.
func (m *Maintainer) Submit(ctx context.Context, input SubmitInput) (_ *domain.Rating, err error) {
	logger := logctx.FromOr(ctx, m.log).With(
		observability.F("use_case", useCaseSubmitRating),
		observability.F("user_id", input.UserID),
		observability.F("product_id", input.ProductID),
	)

	tracer := observability.NopTracer()
	if m.tel != nil {
		tracer = m.tel.Tracer()
	}
	ctx, span := tracer.Start(ctx, spanPrefix+"SubmitRating",
		attribute.String("use_case", useCaseSubmitRating),
		attribute.Int64("rating.product_id", input.ProductID),
	)
	start := time.Now()
	outcome := "success"

	defer func() {
		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, outcome)
			} else {
				span.SetStatus(codes.Ok, "OK")
			}
			span.End()
		}
		m.reqCounter.Add(1,
			observability.L("use_case", useCaseSubmitRating),
			observability.L("outcome", outcome),
		)
		m.durHistogram.Observe(time.Since(start).Seconds(),
			observability.L("use_case", useCaseSubmitRating),
		)
	}()

	if _, err := m.products.Get(ctx, input.ProductID); err != nil {
		outcome = "error"
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
		return nil, wrapRepositoryError(err)
	}

	id, err := m.seq.Next(ctx, sequence.KindRating)
	if err != nil {
		outcome = "error"
		return nil, wrapRepositoryError(err)
	}

	entity, err := domain.New(id, input.UserID, input.ProductID, input.Value, input.Text)
	if err != nil {
		outcome = "error"
		return nil, err
	}

	prev, err := m.ratings.Swap(ctx, entity)
	if err != nil {
		outcome = "error"
		return nil, wrapRepositoryError(err)
	}

	deltaSum, deltaCount := int64(entity.Value), int64(1)
	if prev != nil {
		deltaSum, deltaCount = int64(entity.Value-prev.Value), 0
		entity.ID = prev.ID
		entity.CreatedAt = prev.CreatedAt
	}

	if err := m.products.AdjustRating(ctx, input.ProductID, deltaSum, deltaCount); err != nil {
		// Keep the aggregate in lockstep: undo the rating write before failing.
		m.compensateSwap(ctx, entity, prev, logger)
		outcome = "error"
		return nil, wrapRepositoryError(err)
	}

	m.publishEvent(ctx, domain.NewRatingSubmittedEvent(entity, prev != nil), logger)

	logger.Info("rating_submitted",
		observability.F("rating_id", entity.ID),
		observability.F("value", entity.Value),
		observability.F("replaced", prev != nil),
	)
	return entity, nil
}

// Remove deletes the user's rating and subtracts it from the product aggregate.
func (m *Maintainer) Remove(ctx context.Context, userID string, productID int64) (err error) {
	logger := logctx.FromOr(ctx, m.log).With(
		observability.F("use_case", useCaseRemoveRating),
		observability.F("user_id", userID),
		observability.F("product_id", productID),
	)

	tracer := observability.NopTracer()
	if m.tel != nil {
		tracer = m.tel.Tracer()
	}
	ctx, span := tracer.Start(ctx, spanPrefix+"RemoveRating",
		attribute.String("use_case", useCaseRemoveRating),
		attribute.Int64("rating.product_id", productID),
	)
	start := time.Now()
	outcome := "success"

	defer func() {
		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, outcome)
			} else {
				span.SetStatus(codes.Ok, "OK")
			}
			span.End()
		}
		m.reqCounter.Add(1,
			observability.L("use_case", useCaseRemoveRating),
			observability.L("outcome", outcome),
		)
		m.durHistogram.Observe(time.Since(start).Seconds(),
			observability.L("use_case", useCaseRemoveRating),
		)
	}()

	if userID == "" {
		outcome = "error"
		return domain.ErrUserRequired
	}

	removed, err := m.ratings.Remove(ctx, userID, productID)
	if err != nil {
		outcome = "error"
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return wrapRepositoryError(err)
	}

	if err := m.products.AdjustRating(ctx, productID, -int64(removed.Value), -1); err != nil {
		// Restore the rating so stored rows and aggregate stay consistent.
		if _, swapErr := m.ratings.Swap(ctx, removed); swapErr != nil {
			logger.Error("rating_restore_failed",
				observability.F("rating_id", removed.ID),
				observability.F("error", swapErr.Error()),
			)
		}
		outcome = "error"
		return wrapRepositoryError(err)
	}

	m.publishEvent(ctx, domain.NewRatingRemovedEvent(removed), logger)

	logger.Info("rating_removed",
		observability.F("rating_id", removed.ID),
	)
	return nil
}

func (m *Maintainer) compensateSwap(ctx context.Context, entity, prev *domain.Rating, logger observability.Logger) {
	if prev != nil {
		if _, err := m.ratings.Swap(ctx, prev); err != nil {
			logger.Error("rating_swap_rollback_failed",
				observability.F("rating_id", entity.ID),
				observability.F("error", err.Error()),
			)
		}
		return
	}
	if _, err := m.ratings.Remove(ctx, entity.UserID, entity.ProductID); err != nil {
		logger.Error("rating_insert_rollback_failed",
			observability.F("rating_id", entity.ID),
			observability.F("error", err.Error()),
		)
	}
}

func (m *Maintainer) publishEvent(ctx context.Context, e domoutbox.Event, logger observability.Logger) {
	if m.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := m.publisher.Publish(pubCtx, e); err != nil {
		logger.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
