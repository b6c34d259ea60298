package pricing

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meterplan/meterplan/pkg/types"
)

// ErrNegativeConsumption means a reading was lower than the one before it. The
// store never accepts such a series so this indicates corrupted input.
var ErrNegativeConsumption = errors.New("negative consumption")

// CalculateCost integrates consumption over each pair of adjacent readings and
// prices every interval at the plan's rate at the interval's start. Series with
// fewer than two readings cost zero.
func CalculateCost(series []types.Reading, plan types.PricePlan) (decimal.Decimal, error) {
	sorted := slices.Clone(series)
	slices.SortStableFunc(sorted, func(a, b types.Reading) int {
		return a.Time.Compare(b.Time)
	})

	total := decimal.Zero
	for i := 0; i+1 < len(sorted); i++ {
		start, end := sorted[i], sorted[i+1]
		consumed := end.Reading.Sub(start.Reading)
		if consumed.IsNegative() {
			return decimal.Zero, fmt.Errorf(
				"%w: reading at %s (%s) is lower than reading at %s (%s)",
				ErrNegativeConsumption,
				end.Time.UTC().Format(time.RFC3339Nano), end.Reading,
				start.Time.UTC().Format(time.RFC3339Nano), start.Reading,
			)
		}
		total = total.Add(plan.PriceAt(start.Time).Mul(consumed))
	}
	return total, nil
}
