package server

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/meterplan/meterplan/pkg/types"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) StoreReadings(ctx context.Context, meterID string, batch []types.Reading) (types.StoreStatus, error) {
	args := m.Called(ctx, meterID, batch)
	return args.Get(0).(types.StoreStatus), args.Error(1)
}

func (m *mockStore) GetReadings(ctx context.Context, meterID string) []types.Reading {
	args := m.Called(ctx, meterID)
	return args.Get(0).([]types.Reading)
}

type mockRecommender struct {
	mock.Mock
}

func (m *mockRecommender) CostForEachPlan(ctx context.Context, meterID string) ([]types.PlanCost, error) {
	args := m.Called(ctx, meterID)
	if costs := args.Get(0); costs != nil {
		return costs.([]types.PlanCost), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRecommender) RecommendCheapest(ctx context.Context, meterID string, limit int) ([]types.PlanCost, error) {
	args := m.Called(ctx, meterID, limit)
	if costs := args.Get(0); costs != nil {
		return costs.([]types.PlanCost), args.Error(1)
	}
	return nil, args.Error(1)
}
