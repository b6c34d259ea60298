package ingest

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterplan/meterplan/pkg/readings"
)

// fakeReader hands out queued messages and then reports io.EOF.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	fetchErrs []error
	committed []int64
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.fetchErrs) > 0 {
		err := f.fetchErrs[0]
		f.fetchErrs = f.fetchErrs[1:]
		return kafka.Message{}, err
	}
	if len(f.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := f.msgs[0]
	f.msgs = f.msgs[1:]
	return msg, nil
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestDecodeMessage(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		batch, err := decodeMessage([]byte(`{"smartMeterId":"smart-meter-0","electricityReadings":[{"time":"2024-01-01T00:00:00Z","reading":"1.25"}]}`))
		require.NoError(t, err)
		assert.Equal(t, "smart-meter-0", batch.SmartMeterID)
		require.Len(t, batch.ElectricityReadings, 1)
		assert.True(t, batch.ElectricityReadings[0].Time.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
		assert.True(t, batch.ElectricityReadings[0].Reading.Equal(decimal.RequireFromString("1.25")))
	})

	tests := []struct {
		name string
		raw  string
	}{
		{name: "Invalid JSON", raw: `{"smartMeterId"`},
		{name: "Missing Meter", raw: `{"electricityReadings":[]}`},
		{name: "Missing Readings", raw: `{"smartMeterId":"smart-meter-0"}`},
		{name: "Bad Time", raw: `{"smartMeterId":"smart-meter-0","electricityReadings":[{"time":"yesterday","reading":1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeMessage([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestRun(t *testing.T) {
	reader := &fakeReader{
		fetchErrs: []error{context.DeadlineExceeded},
		msgs: []kafka.Message{
			{Offset: 1, Value: []byte(`{"smartMeterId":"smart-meter-0","electricityReadings":[{"time":"2024-01-01T00:00:00Z","reading":1},{"time":"2024-01-01T01:00:00Z","reading":2}]}`)},
			{Offset: 2, Value: []byte(`not json`)},
			// rejected because the value decreases
			{Offset: 3, Value: []byte(`{"smartMeterId":"smart-meter-0","electricityReadings":[{"time":"2024-01-01T02:00:00Z","reading":0.5}]}`)},
			{Offset: 4, Value: []byte(`{"smartMeterId":"smart-meter-0","electricityReadings":[{"time":"2024-01-01T01:00:00Z","reading":3}]}`)},
			{Offset: 5, Value: []byte(`{"smartMeterId":"smart-meter-1","electricityReadings":[]}`)},
		},
	}
	store := readings.NewStore()
	c := &Consumer{
		brokers: []string{"localhost:9092"},
		topic:   "meter-readings",
		group:   "meterplan",
		reader:  reader,
		store:   store,
	}

	require.NoError(t, c.Run(t.Context()))
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, reader.committed)

	series := store.GetReadings(t.Context(), "smart-meter-0")
	require.Len(t, series, 2)
	assert.True(t, series[0].Reading.Equal(decimal.NewFromInt(1)))
	assert.True(t, series[1].Reading.Equal(decimal.NewFromInt(3)))
	assert.False(t, store.HasMeter("smart-meter-1"))

	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
}

func TestRunCanceled(t *testing.T) {
	reader := &fakeReader{fetchErrs: []error{errors.New("broker down")}}
	c := &Consumer{reader: reader, store: readings.NewStore()}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.NoError(t, c.Run(ctx))
	assert.Empty(t, reader.committed)
}

func TestRunNotInitialized(t *testing.T) {
	c := &Consumer{}
	assert.Error(t, c.Run(t.Context()))
	assert.False(t, c.Enabled())
	assert.Error(t, c.Init(readings.NewStore()))
	assert.NoError(t, c.Close())
}
