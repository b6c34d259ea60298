package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplierID identifies a price plan. The zero value means no plan.
type SupplierID string

// PeakMultiplier scales a plan's unit rate on one day of the week.
type PeakMultiplier struct {
	DayOfWeek  time.Weekday    `json:"dayOfWeek"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// PricePlan is a supplier's rate schedule. Plans are loaded once and never
// mutated afterwards.
type PricePlan struct {
	Supplier        SupplierID       `json:"supplier"`
	Name            string           `json:"name"`
	UnitRate        decimal.Decimal  `json:"unitRate"`
	PeakMultipliers []PeakMultiplier `json:"peakMultipliers"`

	// Location is used to determine the day of the week. When nil the
	// timestamp's own location is used.
	Location *time.Location `json:"-"`
}

// PriceAt returns the unit rate in effect at t. The first multiplier whose day
// matches t's weekday is applied, otherwise the base rate is returned.
func (p PricePlan) PriceAt(t time.Time) decimal.Decimal {
	if p.Location != nil {
		t = t.In(p.Location)
	}
	dow := t.Weekday()
	for _, m := range p.PeakMultipliers {
		if m.DayOfWeek == dow {
			return m.Multiplier.Mul(p.UnitRate)
		}
	}
	return p.UnitRate
}

// PlanCost is the cost of a meter's consumption under one plan.
type PlanCost struct {
	Supplier SupplierID      `json:"supplier"`
	Name     string          `json:"name"`
	Cost     decimal.Decimal `json:"cost"`
}
