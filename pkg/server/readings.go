package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/meterplan/meterplan/pkg/log"
	"github.com/meterplan/meterplan/pkg/metrics"
	"github.com/meterplan/meterplan/pkg/readings"
	"github.com/meterplan/meterplan/pkg/types"
)

func (s *Server) handleStoreReadings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Limit request body size to 1MB
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	var req types.MeterReadings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ObserveDecodeFailure(metrics.SourceHTTP)
		log.Ctx(ctx).WarnContext(ctx, "failed to decode readings", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SmartMeterID == "" {
		writeJSONError(w, "missing smartMeterId", http.StatusBadRequest)
		return
	}
	if req.ElectricityReadings == nil {
		writeJSONError(w, "missing electricityReadings", http.StatusBadRequest)
		return
	}

	status, err := s.store.StoreReadings(ctx, req.SmartMeterID, req.ElectricityReadings)
	metrics.ObserveStore(metrics.SourceHTTP, status, len(req.ElectricityReadings), err)
	if err != nil {
		if readings.IsRejection(err) {
			log.Ctx(ctx).WarnContext(
				ctx,
				"rejected readings",
				slog.String("meterID", req.SmartMeterID),
				slog.Int("count", len(req.ElectricityReadings)),
				slog.Any("error", err),
			)
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to store readings", slog.Any("error", err))
		writeJSONError(w, "failed to store readings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, struct {
		Status types.StoreStatus `json:"status"`
	}{Status: status}, http.StatusOK)
}

func (s *Server) handleGetReadings(w http.ResponseWriter, r *http.Request) {
	meterID := r.PathValue("smartMeterId")
	writeJSON(w, s.store.GetReadings(r.Context(), meterID), http.StatusOK)
}
