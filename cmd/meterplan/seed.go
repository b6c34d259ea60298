package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/meterplan/meterplan/pkg/log"
	"github.com/meterplan/meterplan/pkg/metrics"
	"github.com/meterplan/meterplan/pkg/readings"
	"github.com/meterplan/meterplan/pkg/types"
)

type readingStore interface {
	StoreReadings(ctx context.Context, meterID string, batch []types.Reading) (types.StoreStatus, error)
}

// seedReadings stores n generated readings for each meter.
func seedReadings(ctx context.Context, store readingStore, meterIDs []string, n int, rng *rand.Rand, start time.Time) error {
	for _, meterID := range meterIDs {
		batch := readings.Generate(rng, n, start)
		status, err := store.StoreReadings(ctx, meterID, batch)
		metrics.ObserveStore(metrics.SourceSeed, status, len(batch), err)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", meterID, err)
		}
	}
	log.Ctx(ctx).InfoContext(ctx, "seeded readings", slog.Int("meters", len(meterIDs)), slog.Int("perMeter", n))
	return nil
}
