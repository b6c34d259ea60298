package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meterplan/meterplan/pkg/catalog"
	"github.com/meterplan/meterplan/pkg/readings"
	"github.com/meterplan/meterplan/pkg/types"
)

type mockReadings struct {
	mock.Mock
}

func (m *mockReadings) GetReadings(ctx context.Context, meterID string) []types.Reading {
	args := m.Called(ctx, meterID)
	return args.Get(0).([]types.Reading)
}

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(
		// C precedes B so ties resolve by catalog order, not by name
		[]types.PricePlan{flatPlan("A", 10), flatPlan("C", 4), flatPlan("B", 4)},
		map[string]types.SupplierID{"meter": "A", "empty": "B"},
	)
	require.NoError(t, err)
	return c
}

func costMap(costs []types.PlanCost) map[types.SupplierID]string {
	out := make(map[types.SupplierID]string, len(costs))
	for _, c := range costs {
		out[c.Supplier] = c.Cost.String()
	}
	return out
}

func TestCostForEachPlan(t *testing.T) {
	ctx := context.Background()
	store := readings.NewStore()
	_, err := store.StoreReadings(ctx, "meter", []types.Reading{rd(0, "0"), rd(time.Hour, "5")})
	require.NoError(t, err)
	// readings without a plan assignment
	_, err = store.StoreReadings(ctx, "orphan", []types.Reading{rd(0, "0"), rd(time.Hour, "5")})
	require.NoError(t, err)

	c := NewComparator(store, newCatalog(t))

	t.Run("All Plans In Catalog Order", func(t *testing.T) {
		costs, err := c.CostForEachPlan(ctx, "meter")
		require.NoError(t, err)
		require.Len(t, costs, 3)
		assert.Equal(t, []types.SupplierID{"A", "C", "B"}, []types.SupplierID{costs[0].Supplier, costs[1].Supplier, costs[2].Supplier})
		assert.Equal(t, map[types.SupplierID]string{"A": "50", "B": "20", "C": "20"}, costMap(costs))
		assert.Equal(t, "A", costs[0].Name)
	})

	t.Run("Unknown Meter", func(t *testing.T) {
		costs, err := c.CostForEachPlan(ctx, "nope")
		assert.ErrorIs(t, err, ErrMeterNotFound)
		assert.Nil(t, costs)
	})

	t.Run("No Plan Assignment", func(t *testing.T) {
		_, err := c.CostForEachPlan(ctx, "orphan")
		assert.ErrorIs(t, err, ErrMeterNotFound)
	})

	t.Run("No Readings", func(t *testing.T) {
		_, err := c.CostForEachPlan(ctx, "empty")
		assert.ErrorIs(t, err, ErrMeterNotFound)
	})
}

func TestCostForEachPlanCorruptSeries(t *testing.T) {
	ctx := context.Background()
	mr := &mockReadings{}
	mr.On("GetReadings", mock.Anything, "meter").Return([]types.Reading{rd(0, "5"), rd(time.Hour, "1")})

	c := NewComparator(mr, newCatalog(t))
	_, err := c.CostForEachPlan(ctx, "meter")
	assert.ErrorIs(t, err, ErrNegativeConsumption)
	assert.NotErrorIs(t, err, ErrMeterNotFound)
	mr.AssertExpectations(t)
}

func TestRecommendCheapest(t *testing.T) {
	ctx := context.Background()
	store := readings.NewStore()
	_, err := store.StoreReadings(ctx, "meter", []types.Reading{rd(0, "0"), rd(time.Hour, "5")})
	require.NoError(t, err)
	c := NewComparator(store, newCatalog(t))

	t.Run("Limit", func(t *testing.T) {
		got, err := c.RecommendCheapest(ctx, "meter", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.EqualValues(t, "C", got[0].Supplier)
		assert.EqualValues(t, "B", got[1].Supplier)
		assert.True(t, decimal.NewFromInt(20).Equal(got[0].Cost))
	})

	t.Run("No Limit", func(t *testing.T) {
		got, err := c.RecommendCheapest(ctx, "meter", 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.EqualValues(t, "C", got[0].Supplier)
		assert.EqualValues(t, "B", got[1].Supplier)
		assert.EqualValues(t, "A", got[2].Supplier)
	})

	t.Run("Limit Larger Than Plans", func(t *testing.T) {
		got, err := c.RecommendCheapest(ctx, "meter", 10)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("Unknown Meter", func(t *testing.T) {
		_, err := c.RecommendCheapest(ctx, "nope", 1)
		assert.ErrorIs(t, err, ErrMeterNotFound)
	})
}
