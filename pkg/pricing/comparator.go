package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/meterplan/meterplan/pkg/log"
	"github.com/meterplan/meterplan/pkg/types"
)

// ErrMeterNotFound is returned for a meter without an assigned plan or without
// any stored readings.
var ErrMeterNotFound = errors.New("meter not found")

// ReadingSource provides a meter's readings sorted by time.
type ReadingSource interface {
	GetReadings(ctx context.Context, meterID string) []types.Reading
}

// PlanSource provides the price plans and meter assignments.
type PlanSource interface {
	Plans() []types.PricePlan
	PlanForMeter(meterID string) (types.SupplierID, bool)
}

// Comparator prices a meter's consumption under every plan.
type Comparator struct {
	readings ReadingSource
	plans    PlanSource
}

// NewComparator creates a Comparator.
func NewComparator(readings ReadingSource, plans PlanSource) *Comparator {
	return &Comparator{
		readings: readings,
		plans:    plans,
	}
}

// CostForEachPlan returns the cost of the meter's readings under every plan, in
// catalog order.
func (c *Comparator) CostForEachPlan(ctx context.Context, meterID string) ([]types.PlanCost, error) {
	if _, ok := c.plans.PlanForMeter(meterID); !ok {
		return nil, fmt.Errorf("%w: %s has no price plan", ErrMeterNotFound, meterID)
	}
	series := c.readings.GetReadings(ctx, meterID)
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s has no readings", ErrMeterNotFound, meterID)
	}

	plans := c.plans.Plans()
	costs := make([]types.PlanCost, 0, len(plans))
	for _, plan := range plans {
		cost, err := CalculateCost(series, plan)
		if err != nil {
			log.Ctx(ctx).ErrorContext(
				ctx,
				"failed to calculate cost",
				slog.String("meterID", meterID),
				slog.String("supplier", string(plan.Supplier)),
				slog.Any("error", err),
			)
			return nil, fmt.Errorf("failed to calculate cost for %s: %w", plan.Supplier, err)
		}
		costs = append(costs, types.PlanCost{
			Supplier: plan.Supplier,
			Name:     plan.Name,
			Cost:     cost,
		})
	}
	return costs, nil
}

// RecommendCheapest returns the plans ordered by ascending cost. Plans with
// equal cost keep catalog order. A positive limit truncates the result.
func (c *Comparator) RecommendCheapest(ctx context.Context, meterID string, limit int) ([]types.PlanCost, error) {
	costs, err := c.CostForEachPlan(ctx, meterID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(costs, func(a, b types.PlanCost) int {
		return a.Cost.Cmp(b.Cost)
	})
	if limit > 0 && limit < len(costs) {
		costs = costs[:limit]
	}
	return costs, nil
}
