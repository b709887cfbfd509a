// Package scenario generates deterministic, seed-reproducible return
// paths for named market scenarios. Scenario calibration lives in
// configuration; this package compiles in defaults matching the standard
// catalog.
package scenario

import (
	"fmt"
	"hash/fnv"

	"github.com/threshold-labs/sentry/internal/core"
)

// baseMonthlySigma is the monthly standard deviation for a moderate
// volatility band; the band multiplier scales it.
const baseMonthlySigma = 0.05

// VolatilityBand buckets scenarios by how noisy their monthly returns are.
type VolatilityBand string

const (
	BandLow      VolatilityBand = "low"
	BandModerate VolatilityBand = "moderate"
	BandHigh     VolatilityBand = "high"
)

// IsValid checks if the band is a known bucket.
func (b VolatilityBand) IsValid() bool {
	switch b {
	case BandLow, BandModerate, BandHigh:
		return true
	}
	return false
}

// Multiplier returns the band's scale on the base monthly sigma.
func (b VolatilityBand) Multiplier() float64 {
	switch b {
	case BandLow:
		return 0.5
	case BandHigh:
		return 1.5
	}
	return 1.0
}

// Definition parameterizes one named scenario.
type Definition struct {
	Name       string         `mapstructure:"name"`
	Drift      float64        `mapstructure:"drift"` // expected annual return
	Volatility VolatilityBand `mapstructure:"volatility"`
	IsStress   bool           `mapstructure:"is_stress"`
}

// MonthlySigma resolves the band into a monthly standard deviation.
func (d Definition) MonthlySigma() float64 {
	return baseMonthlySigma * d.Volatility.Multiplier()
}

// Catalog holds scenario definitions in declaration order. Iteration
// order is the declaration order, never map order, so aggregation over
// scenarios is deterministic.
type Catalog struct {
	defs  []Definition
	index map[string]int
}

// NewCatalog builds a catalog from definitions, validating each entry.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(defs))}
	for _, def := range defs {
		if def.Name == "" {
			return nil, core.WrapError(core.ErrConfiguration,
				fmt.Errorf("scenario with empty name"))
		}
		if !def.Volatility.IsValid() {
			return nil, core.WrapError(core.ErrConfiguration,
				fmt.Errorf("scenario %s: unknown volatility band %q", def.Name, def.Volatility))
		}
		if _, dup := c.index[def.Name]; dup {
			return nil, core.WrapError(core.ErrConfiguration,
				fmt.Errorf("scenario %s defined twice", def.Name))
		}
		c.index[def.Name] = len(c.defs)
		c.defs = append(c.defs, def)
	}
	return c, nil
}

// DefaultDefinitions returns the compiled-in calibration: the three
// standard market scenarios plus the historical stress replays.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: "bull_market", Drift: 0.15, Volatility: BandModerate},
		{Name: "bear_market", Drift: -0.20, Volatility: BandHigh},
		{Name: "sideways", Drift: 0.02, Volatility: BandLow},
		{Name: "market_crash_2008", Drift: -0.45, Volatility: BandHigh, IsStress: true},
		{Name: "covid_pandemic_2020", Drift: -0.30, Volatility: BandHigh, IsStress: true},
		{Name: "dot_com_bubble_2000", Drift: -0.40, Volatility: BandHigh, IsStress: true},
		{Name: "inflation_spike_1970s", Drift: -0.25, Volatility: BandModerate, IsStress: true},
		{Name: "black_monday_1987", Drift: -0.20, Volatility: BandHigh, IsStress: true},
	}
}

// DefaultCatalog builds the compiled-in catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultDefinitions())
	if err != nil {
		panic(err) // compiled-in definitions are always valid
	}
	return c
}

// Lookup finds a definition by name.
func (c *Catalog) Lookup(name string) (Definition, error) {
	i, ok := c.index[name]
	if !ok {
		return Definition{}, core.WrapError(core.ErrUnknownScenario,
			fmt.Errorf("scenario %q not in catalog", name))
	}
	return c.defs[i], nil
}

// Definitions returns every definition in declaration order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Stress returns the stress-flagged definitions in declaration order.
func (c *Catalog) Stress() []Definition {
	var out []Definition
	for _, def := range c.defs {
		if def.IsStress {
			out = append(out, def)
		}
	}
	return out
}

// Names returns every scenario name in declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.defs))
	for i, def := range c.defs {
		out[i] = def.Name
	}
	return out
}

// DeriveSeed maps a request seed and a scenario name to the seed used
// for that scenario's path. Each scenario in a multi-scenario request
// gets an independent stream while the whole request stays reproducible
// from the single base seed.
func DeriveSeed(base int64, name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return base + int64(h.Sum64()&0x7fffffff)
}
