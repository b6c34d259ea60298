package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reading is a cumulative meter value captured at a point in time.
type Reading struct {
	Time    time.Time       `json:"time"`
	Reading decimal.Decimal `json:"reading"`
}

// StoreStatus describes how an accepted batch changed a meter's series.
type StoreStatus string

const (
	// StatusInserted means none of the batch's timestamps were already stored.
	StatusInserted StoreStatus = "inserted"
	// StatusUpdated means at least one stored reading was overwritten.
	StatusUpdated StoreStatus = "updated"
)

// MeterReadings is a batch of readings addressed to a single smart meter. It
// is the body of a store request and of an ingested message.
type MeterReadings struct {
	SmartMeterID        string    `json:"smartMeterId"`
	ElectricityReadings []Reading `json:"electricityReadings"`
}
