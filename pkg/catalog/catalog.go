package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/meterplan/meterplan/pkg/types"
)

var (
	ErrDuplicatePlan       = errors.New("duplicate price plan")
	ErrDuplicateMultiplier = errors.New("duplicate peak multiplier for day of week")
	ErrUnknownPlan         = errors.New("unknown price plan")
	ErrInvalidPlan         = errors.New("invalid price plan")
)

// Catalog is the read-only set of price plans and the plan assigned to each
// meter. Plans keep the order they were configured in.
type Catalog struct {
	plans    []types.PricePlan
	byID     map[types.SupplierID]int
	accounts map[string]types.SupplierID
}

// New validates plans and accounts and returns a Catalog. Every plan must have
// a unique supplier ID and at most one multiplier per day of the week, and
// every account must reference a known plan.
func New(plans []types.PricePlan, accounts map[string]types.SupplierID) (*Catalog, error) {
	c := &Catalog{
		plans:    slices.Clone(plans),
		byID:     make(map[types.SupplierID]int, len(plans)),
		accounts: make(map[string]types.SupplierID, len(accounts)),
	}
	for i, p := range c.plans {
		if err := validatePlan(p); err != nil {
			return nil, err
		}
		if _, ok := c.byID[p.Supplier]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlan, p.Supplier)
		}
		c.byID[p.Supplier] = i
	}
	for meterID, supplier := range accounts {
		if meterID == "" {
			return nil, fmt.Errorf("account with empty meter id assigned to %s", supplier)
		}
		if _, ok := c.byID[supplier]; !ok {
			return nil, fmt.Errorf("%w: %q assigned to meter %s", ErrUnknownPlan, supplier, meterID)
		}
		c.accounts[meterID] = supplier
	}
	return c, nil
}

func validatePlan(p types.PricePlan) error {
	if p.Supplier == "" {
		return fmt.Errorf("%w: missing supplier", ErrInvalidPlan)
	}
	if p.UnitRate.IsNegative() {
		return fmt.Errorf("%w: %s has negative unit rate %s", ErrInvalidPlan, p.Supplier, p.UnitRate)
	}
	var seen [7]bool
	for _, m := range p.PeakMultipliers {
		if m.DayOfWeek < time.Sunday || m.DayOfWeek > time.Saturday {
			return fmt.Errorf("%w: %s has invalid day of week %d", ErrInvalidPlan, p.Supplier, m.DayOfWeek)
		}
		if m.Multiplier.IsNegative() {
			return fmt.Errorf("%w: %s has negative multiplier on %s", ErrInvalidPlan, p.Supplier, m.DayOfWeek)
		}
		if seen[m.DayOfWeek] {
			return fmt.Errorf("%w: %s on %s", ErrDuplicateMultiplier, p.Supplier, m.DayOfWeek)
		}
		seen[m.DayOfWeek] = true
	}
	return nil
}

// Plans returns every plan in configured order.
func (c *Catalog) Plans() []types.PricePlan {
	return slices.Clone(c.plans)
}

// Plan returns the plan with the given supplier ID.
func (c *Catalog) Plan(id types.SupplierID) (types.PricePlan, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.PricePlan{}, false
	}
	return c.plans[i], true
}

// PlanForMeter returns the plan assigned to meterID. The bool is false for a
// meter without an assignment.
func (c *Catalog) PlanForMeter(meterID string) (types.SupplierID, bool) {
	id, ok := c.accounts[meterID]
	return id, ok
}

// MeterIDs returns every meter with an assigned plan, sorted.
func (c *Catalog) MeterIDs() []string {
	ids := make([]string, 0, len(c.accounts))
	for id := range c.accounts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Accounts returns a copy of the meter to plan assignments.
func (c *Catalog) Accounts() map[string]types.SupplierID {
	out := make(map[string]types.SupplierID, len(c.accounts))
	for k, v := range c.accounts {
		out[k] = v
	}
	return out
}

// ParseWeekday parses a full or three letter English weekday name, ignoring
// case.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid day of week: %q", s)
}
