package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appcart "github.com/Zhima-Mochi/minishop-checkout/app/internal/application/cart"
	appcheckout "github.com/Zhima-Mochi/minishop-checkout/app/internal/application/checkout"
	apporder "github.com/Zhima-Mochi/minishop-checkout/app/internal/application/order"
	apprating "github.com/Zhima-Mochi/minishop-checkout/app/internal/application/rating"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/config"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/sequence"
	httptransport "github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/http"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/sqlite"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/stats"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/pkg/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)
	obsLogger := zaplogger.Wrap(baseLogger)

	registry := prometrics.New("minishop", "checkout")
	tel := telemetry.New(
		oteltrace.New(cfg.ServiceName),
		obsLogger,
		counters(registry),
		histograms(registry),
	)

	productRepo := memory.NewProductRepository()
	cartRepo := memory.NewCartRepository()
	orderRepo := memory.NewOrderRepository()
	ratingRepo := memory.NewRatingRepository()

	var allocator sequence.Allocator
	if cfg.SequenceDBPath != "" {
		durable, err := sqlite.Open(cfg.SequenceDBPath)
		if err != nil {
			systemLogger.Fatal("sequence_db_open_failed", zap.Error(err))
		}
		defer func() { _ = durable.Close() }()
		allocator = durable
	} else {
		allocator = memory.NewSequenceAllocator()
	}

	bus := outbox.NewBus(obsLogger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	statsWorker := stats.New(bus, tel)
	statsWorker.Start()

	placeOrder := appcheckout.NewPlaceOrderUseCase(orderRepo, cartRepo, productRepo, allocator, id.NewUUIDGenerator(), bus, tel)
	orderService := apporder.NewService(orderRepo, bus, obsLogger)
	cartService := appcart.NewService(cartRepo, productRepo)
	ratingMaintainer := apprating.NewMaintainer(ratingRepo, productRepo, allocator, bus, tel)

	if cfg.SeedDemoData {
		seedDemoData(productRepo, allocator, systemLogger)
	}

	handler := httptransport.NewHandler(placeOrder, orderService, cartService, ratingMaintainer, productRepo)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httptransport.ObservabilityMiddleware(tel)(handler.Router()))

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
}

func seedDemoData(repo catalog.Repository, allocator sequence.Allocator, logger *zap.Logger) {
	ctx := context.Background()
	seeds := []struct {
		name  string
		price string
		stock int
	}{
		{"espresso beans 1kg", "18.50", 40},
		{"pour-over kettle", "64.00", 12},
		{"ceramic mug", "9.90", 100},
	}
	for _, s := range seeds {
		pid, err := allocator.Next(ctx, sequence.KindProduct)
		if err != nil {
			logger.Warn("seed_id_allocation_failed", zap.Error(err))
			continue
		}
		price, err := decimal.NewFromString(s.price)
		if err != nil {
			logger.Warn("seed_price_invalid", zap.String("price", s.price), zap.Error(err))
			continue
		}
		p, err := catalog.New(pid, s.name, price, s.stock)
		if err != nil {
			logger.Warn("seed_product_invalid", zap.String("name", s.name), zap.Error(err))
			continue
		}
		if err := repo.Create(ctx, p); err != nil {
			logger.Warn("seed_product_create_failed", zap.String("name", s.name), zap.Error(err))
		}
	}
	logger.Info("demo_data_seeded", zap.Int("products", len(seeds)))
}
