package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
	"github.com/shopspring/decimal"

	"github.com/meterplan/meterplan/pkg/catalog"
	"github.com/meterplan/meterplan/pkg/ingest"
	"github.com/meterplan/meterplan/pkg/log"
	"github.com/meterplan/meterplan/pkg/pricing"
	"github.com/meterplan/meterplan/pkg/readings"
	"github.com/meterplan/meterplan/pkg/server"
)

func main() {
	// init packages
	src := catalog.Configured()
	consumer := ingest.Configured()
	seedCount := lflag.Int("seed-readings", 0, "Number of generated readings to store for every assigned meter at startup")

	store := readings.NewStore()
	cat := &catalogRef{}

	// init server
	srv := server.Configured(store, pricing.NewComparator(store, cat))

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}

	setLogLevel(level)
	slog.Debug("logger configured", slog.String("level", level.String()))

	// costs and readings are written as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer func() {
		if err := src.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close catalog source", slog.Any("error", err))
		}
	}()

	loaded, err := src.Load(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load catalog", slog.Any("error", err))
		os.Exit(1)
	}
	cat.Catalog = loaded
	log.Ctx(ctx).InfoContext(
		ctx,
		"loaded catalog",
		slog.Int("plans", len(loaded.Plans())),
		slog.Int("meters", len(loaded.MeterIDs())),
	)

	if *seedCount > 0 {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		start := time.Now().UTC().Add(-time.Duration(*seedCount) * readings.GenerateInterval).Truncate(time.Second)
		if err := seedReadings(ctx, store, loaded.MeterIDs(), *seedCount, rng, start); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to seed readings", slog.Any("error", err))
			os.Exit(1)
		}
	}

	var wg sync.WaitGroup
	if consumer.Enabled() {
		if err := consumer.Init(store); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to init consumer", slog.Any("error", err))
			os.Exit(1)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil {
				log.Ctx(ctx).ErrorContext(ctx, "consumer failed", slog.Any("error", err))
			}
		}()
	}

	// Run will block until context is canceled or error happens
	err = srv.Run(ctx)
	cancel()
	wg.Wait()
	if cerr := consumer.Close(); cerr != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to close consumer", slog.Any("error", cerr))
	}
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}

// setLogLevel applies level to the slog default and to the fallback logger
// returned by log.Ctx.
func setLogLevel(level slog.Level) {
	log.SetDefaultLogLevel(level)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))
}

// catalogRef lets the comparator be built before flags are parsed and the
// catalog is loaded.
type catalogRef struct {
	*catalog.Catalog
}
