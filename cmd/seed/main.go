package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/levenlabs/go-lflag"

	"github.com/meterplan/meterplan/pkg/catalog"
	"github.com/meterplan/meterplan/pkg/log"
)

func main() {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	}
	fs := catalog.ConfiguredFirestore()
	file := lflag.String("seed-catalog-file", "", "YAML catalog to write (defaults to the builtin catalog)")
	lflag.Configure()

	ctx := context.Background()

	var src catalog.Source = catalog.BuiltinSource{}
	if *file != "" {
		src = catalog.YAMLSource{Path: *file}
	}
	cat, err := src.Load(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load catalog", slog.Any("error", err))
		os.Exit(1)
	}

	if err := fs.Init(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to init firestore", slog.Any("error", err))
		os.Exit(1)
	}
	defer fs.Close()

	log.Ctx(ctx).InfoContext(ctx, "seeding catalog", slog.Int("plans", len(cat.Plans())), slog.Int("meters", len(cat.MeterIDs())))
	if err := fs.Save(ctx, cat); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to seed catalog", slog.Any("error", err))
		os.Exit(1)
	}

	for _, meterID := range cat.MeterIDs() {
		supplier, ok, err := fs.PlanForMeter(ctx, meterID)
		if err != nil || !ok {
			log.Ctx(ctx).ErrorContext(ctx, "failed to verify account", slog.String("meterID", meterID), slog.Any("error", err))
			os.Exit(1)
		}
		fmt.Printf("Seeded %s on %s\n", meterID, supplier)
	}

	log.Ctx(ctx).InfoContext(ctx, "seeded catalog successfully")
}
