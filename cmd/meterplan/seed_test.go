package main

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterplan/meterplan/pkg/catalog"
	"github.com/meterplan/meterplan/pkg/pricing"
	"github.com/meterplan/meterplan/pkg/readings"
)

func TestSeedReadings(t *testing.T) {
	cat, err := catalog.BuiltinSource{}.Load(t.Context())
	require.NoError(t, err)
	store := readings.NewStore()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, seedReadings(t.Context(), store, cat.MeterIDs(), 5, rand.New(rand.NewSource(1)), start))

	for _, meterID := range cat.MeterIDs() {
		series := store.GetReadings(t.Context(), meterID)
		require.Len(t, series, 5, meterID)
		assert.True(t, series[0].Time.Equal(start))
		assert.True(t, series[4].Time.Equal(start.Add(4*readings.GenerateInterval)))
	}

	// every seeded meter can be priced
	ref := &catalogRef{Catalog: cat}
	costs, err := pricing.NewComparator(store, ref).RecommendCheapest(t.Context(), "smart-meter-0", 0)
	require.NoError(t, err)
	require.Len(t, costs, 3)
	assert.Equal(t, catalog.PowerForEveryone, costs[0].Supplier)
}

func TestSeedReadingsRejected(t *testing.T) {
	store := readings.NewStore()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := seedReadings(t.Context(), store, []string{""}, 1, rand.New(rand.NewSource(1)), start)
	require.ErrorIs(t, err, readings.ErrEmptyMeterID)
}
