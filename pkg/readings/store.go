package readings

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/meterplan/meterplan/pkg/log"
	"github.com/meterplan/meterplan/pkg/types"
)

// Store keeps the reading series for every meter in memory. Each meter's series
// has its own lock so stores to the same meter serialize while stores to
// different meters proceed concurrently.
type Store struct {
	mu     sync.Mutex
	meters map[string]*series
}

type series struct {
	mu sync.RWMutex
	// dropped is set once the series is removed from the store; a writer
	// that locked it afterwards must look the meter up again
	dropped bool
	// readings is always sorted ascending by Time with unique timestamps and
	// non-decreasing values
	readings []types.Reading
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		meters: make(map[string]*series),
	}
}

func (s *Store) get(meterID string) *series {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meters[meterID]
}

func (s *Store) getOrCreate(meterID string) *series {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ser, ok := s.meters[meterID]; ok {
		return ser
	}
	ser := &series{}
	s.meters[meterID] = ser
	return ser
}

// lockSeries returns the meter's series, creating it if needed, with its write
// lock held.
func (s *Store) lockSeries(meterID string) *series {
	for {
		ser := s.getOrCreate(meterID)
		ser.mu.Lock()
		if !ser.dropped {
			return ser
		}
		ser.mu.Unlock()
	}
}

// drop removes a series that never had a successful store. ser.mu must be
// held.
func (s *Store) drop(meterID string, ser *series) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meters[meterID] == ser {
		delete(s.meters, meterID)
	}
	ser.dropped = true
}

// StoreReadings validates batch and merges it into the meter's series. A
// reading whose timestamp is already stored overwrites the stored value. The
// merged series must be non-decreasing in value or the whole batch is rejected
// and the series is left as it was.
func (s *Store) StoreReadings(ctx context.Context, meterID string, batch []types.Reading) (types.StoreStatus, error) {
	if meterID == "" {
		return "", reject(ErrEmptyMeterID, time.Time{})
	}
	if err := validateBatch(batch); err != nil {
		return "", err
	}

	ser := s.lockSeries(meterID)
	defer ser.mu.Unlock()

	merged, updated := merge(ser.readings, batch)
	if err := checkMonotonic(merged); err != nil {
		// a meter only exists after its first successful store
		if len(ser.readings) == 0 {
			s.drop(meterID, ser)
		}
		return "", err
	}
	ser.readings = merged

	status := types.StatusInserted
	if updated {
		status = types.StatusUpdated
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"stored readings",
		slog.String("meterID", meterID),
		slog.Int("batch", len(batch)),
		slog.Int("total", len(merged)),
		slog.String("status", string(status)),
	)
	return status, nil
}

// GetReadings returns a copy of the meter's series sorted ascending by time. An
// unknown meter yields an empty slice.
func (s *Store) GetReadings(ctx context.Context, meterID string) []types.Reading {
	ser := s.get(meterID)
	if ser == nil {
		return []types.Reading{}
	}
	ser.mu.RLock()
	defer ser.mu.RUnlock()
	out := make([]types.Reading, len(ser.readings))
	copy(out, ser.readings)
	return out
}

// HasMeter reports whether at least one batch has been stored for meterID.
func (s *Store) HasMeter(meterID string) bool {
	ser := s.get(meterID)
	if ser == nil {
		return false
	}
	ser.mu.RLock()
	defer ser.mu.RUnlock()
	return len(ser.readings) > 0
}

func validateBatch(batch []types.Reading) error {
	if len(batch) == 0 {
		return reject(ErrEmptyBatch, time.Time{})
	}
	seen := make(map[time.Time]struct{}, len(batch))
	for _, r := range batch {
		if r.Time.IsZero() {
			return reject(ErrMissingTimestamp, time.Time{})
		}
		// UTC normalizes the location and strips the monotonic reading so equal
		// instants produce equal keys
		key := r.Time.UTC()
		if _, ok := seen[key]; ok {
			return reject(ErrDuplicateTimestamp, r.Time)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// merge returns a new sorted series with batch applied on top of existing. The
// existing slice is not modified.
func merge(existing, batch []types.Reading) ([]types.Reading, bool) {
	merged := make([]types.Reading, len(existing), len(existing)+len(batch))
	copy(merged, existing)

	index := make(map[time.Time]int, len(existing))
	for i, r := range existing {
		index[r.Time.UTC()] = i
	}

	var updated bool
	for _, r := range batch {
		if i, ok := index[r.Time.UTC()]; ok {
			merged[i].Reading = r.Reading
			updated = true
			continue
		}
		merged = append(merged, r)
	}

	slices.SortStableFunc(merged, func(a, b types.Reading) int {
		return a.Time.Compare(b.Time)
	})
	return merged, updated
}

func checkMonotonic(series []types.Reading) error {
	for i := 1; i < len(series); i++ {
		if series[i].Reading.LessThan(series[i-1].Reading) {
			return reject(ErrNonMonotonic, series[i].Time)
		}
	}
	return nil
}
