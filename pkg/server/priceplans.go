package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/meterplan/meterplan/pkg/log"
	"github.com/meterplan/meterplan/pkg/pricing"
	"github.com/meterplan/meterplan/pkg/types"
)

func (s *Server) handleCompareAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	meterID := r.PathValue("smartMeterId")

	costs, err := s.recommender.CostForEachPlan(ctx, meterID)
	if err != nil {
		s.writePricingError(w, r, err)
		return
	}

	res := make(map[types.SupplierID]decimal.Decimal, len(costs))
	for _, c := range costs {
		res[c.Supplier] = c.Cost
	}
	writeJSON(w, res, http.StatusOK)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	meterID := r.PathValue("smartMeterId")

	var limit int
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	costs, err := s.recommender.RecommendCheapest(ctx, meterID, limit)
	if err != nil {
		s.writePricingError(w, r, err)
		return
	}
	writeJSON(w, costs, http.StatusOK)
}

func (s *Server) writePricingError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if errors.Is(err, pricing.ErrMeterNotFound) {
		writeJSONError(w, "meter not found", http.StatusNotFound)
		return
	}
	log.Ctx(ctx).ErrorContext(ctx, "failed to price readings", slog.Any("error", err))
	writeJSONError(w, "failed to price readings", http.StatusInternalServerError)
}
