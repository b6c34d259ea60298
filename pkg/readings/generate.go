package readings

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meterplan/meterplan/pkg/types"
)

// GenerateInterval is the spacing between generated readings.
const GenerateInterval = 10 * time.Second

// Generate returns n readings starting at start, GenerateInterval apart, each
// value increasing the previous one by a random amount in [0, 1).
func Generate(rng *rand.Rand, n int, start time.Time) []types.Reading {
	out := make([]types.Reading, 0, n)
	value := decimal.Zero
	for i := range n {
		value = value.Add(decimal.NewFromFloat(rng.Float64()).Round(4))
		out = append(out, types.Reading{
			Time:    start.Add(time.Duration(i) * GenerateInterval),
			Reading: value,
		})
	}
	return out
}
