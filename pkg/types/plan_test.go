package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricePlanPriceAt(t *testing.T) {
	// 2024-01-06 is a Saturday
	saturday := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)

	plan := PricePlan{
		Supplier: "plan",
		UnitRate: decimal.NewFromInt(10),
		PeakMultipliers: []PeakMultiplier{
			{DayOfWeek: time.Saturday, Multiplier: decimal.RequireFromString("1.5")},
		},
	}

	t.Run("Matching Day", func(t *testing.T) {
		assert.True(t, decimal.NewFromInt(15).Equal(plan.PriceAt(saturday)))
	})

	t.Run("Other Day", func(t *testing.T) {
		assert.True(t, decimal.NewFromInt(10).Equal(plan.PriceAt(monday)))
	})

	t.Run("No Multipliers", func(t *testing.T) {
		flat := PricePlan{UnitRate: decimal.NewFromInt(2)}
		assert.True(t, decimal.NewFromInt(2).Equal(flat.PriceAt(saturday)))
	})

	t.Run("First Match Wins", func(t *testing.T) {
		dup := plan
		dup.PeakMultipliers = []PeakMultiplier{
			{DayOfWeek: time.Saturday, Multiplier: decimal.NewFromInt(3)},
			{DayOfWeek: time.Saturday, Multiplier: decimal.NewFromInt(5)},
		}
		assert.True(t, decimal.NewFromInt(30).Equal(dup.PriceAt(saturday)))
	})

	t.Run("Location", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		withLoc := plan
		withLoc.Location = loc
		// 03:00 UTC on Sunday is still Saturday evening in New York
		ts := time.Date(2024, 1, 7, 3, 0, 0, 0, time.UTC)
		assert.True(t, decimal.NewFromInt(15).Equal(withLoc.PriceAt(ts)))
		assert.True(t, decimal.NewFromInt(10).Equal(plan.PriceAt(ts)))
	})
}
