package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/meterplan/meterplan/pkg/types"
)

// YAMLSource loads a catalog from a YAML file.
type YAMLSource struct {
	Path string
}

type yamlCatalog struct {
	Plans    []yamlPlan        `yaml:"plans"`
	Accounts map[string]string `yaml:"accounts"`
}

type yamlPlan struct {
	Supplier        string               `yaml:"supplier"`
	Name            string               `yaml:"name"`
	UnitRate        string               `yaml:"unitRate"`
	Location        string               `yaml:"location"`
	PeakMultipliers []yamlPeakMultiplier `yaml:"peakMultipliers"`
}

type yamlPeakMultiplier struct {
	DayOfWeek  string `yaml:"dayOfWeek"`
	Multiplier string `yaml:"multiplier"`
}

// Load implements Source.
func (y YAMLSource) Load(ctx context.Context) (*Catalog, error) {
	f, err := os.Open(y.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	c, err := ParseYAML(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog file %s: %w", y.Path, err)
	}
	return c, nil
}

// ParseYAML decodes and validates a catalog document.
func ParseYAML(r io.Reader) (*Catalog, error) {
	var doc yamlCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode yaml: %w", err)
	}

	plans := make([]types.PricePlan, 0, len(doc.Plans))
	for i, yp := range doc.Plans {
		p, err := yp.toPlan()
		if err != nil {
			return nil, fmt.Errorf("plan %d: %w", i, err)
		}
		plans = append(plans, p)
	}

	accounts := make(map[string]types.SupplierID, len(doc.Accounts))
	for meterID, supplier := range doc.Accounts {
		accounts[meterID] = types.SupplierID(supplier)
	}
	return New(plans, accounts)
}

func (yp yamlPlan) toPlan() (types.PricePlan, error) {
	rate, err := decimal.NewFromString(yp.UnitRate)
	if err != nil {
		return types.PricePlan{}, fmt.Errorf("invalid unitRate %q: %w", yp.UnitRate, err)
	}
	p := types.PricePlan{
		Supplier: types.SupplierID(yp.Supplier),
		Name:     yp.Name,
		UnitRate: rate,
	}
	if p.Name == "" {
		p.Name = yp.Supplier
	}
	if yp.Location != "" {
		loc, err := time.LoadLocation(yp.Location)
		if err != nil {
			return types.PricePlan{}, fmt.Errorf("failed to load location %s: %w", yp.Location, err)
		}
		p.Location = loc
	}
	for _, ym := range yp.PeakMultipliers {
		dow, err := ParseWeekday(ym.DayOfWeek)
		if err != nil {
			return types.PricePlan{}, err
		}
		m, err := decimal.NewFromString(ym.Multiplier)
		if err != nil {
			return types.PricePlan{}, fmt.Errorf("invalid multiplier %q: %w", ym.Multiplier, err)
		}
		p.PeakMultipliers = append(p.PeakMultipliers, types.PeakMultiplier{DayOfWeek: dow, Multiplier: m})
	}
	return p, nil
}
