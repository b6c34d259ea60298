package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/meterplan/meterplan/pkg/types"
)

const (
	DrEvilsDarkEnergy types.SupplierID = "price-plan-0"
	TheGreenEco       types.SupplierID = "price-plan-1"
	PowerForEveryone  types.SupplierID = "price-plan-2"
)

// BuiltinSource provides the default catalog of three flat rate plans and five
// smart meters.
type BuiltinSource struct{}

// Load implements Source.
func (BuiltinSource) Load(ctx context.Context) (*Catalog, error) {
	return New(
		[]types.PricePlan{
			{Supplier: DrEvilsDarkEnergy, Name: "Dr Evil's Dark Energy", UnitRate: decimal.NewFromInt(10)},
			{Supplier: TheGreenEco, Name: "The Green Eco", UnitRate: decimal.NewFromInt(2)},
			{Supplier: PowerForEveryone, Name: "Power for Everyone", UnitRate: decimal.NewFromInt(1)},
		},
		map[string]types.SupplierID{
			"smart-meter-0": DrEvilsDarkEnergy,
			"smart-meter-1": TheGreenEco,
			"smart-meter-2": DrEvilsDarkEnergy,
			"smart-meter-3": PowerForEveryone,
			"smart-meter-4": TheGreenEco,
		},
	)
}
