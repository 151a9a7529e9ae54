// Package units wraps shopspring/decimal with domain-specific value types so
// GLP volumes, fuel, distance and cost never drift the way float64 would.
package units

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Volume represents a quantity of GLP in cubic metres.
type Volume struct {
	value decimal.Decimal
}

// Fuel represents a quantity of fuel in gallons.
type Fuel struct {
	value decimal.Decimal
}

// Distance represents a Manhattan distance in grid units (1 unit ~= 1 km).
type Distance struct {
	value decimal.Decimal
}

// Cost represents a dimensionless solver/evaluator cost score.
type Cost struct {
	value decimal.Decimal
}

// GLPDensityTPerM3 is the fixed density used to convert GLP volume to weight.
const GLPDensityTPerM3 = 0.5

// ConsumptionFactor is the divisor in the fuel-consumption formula (spec §6).
const ConsumptionFactor = 360.0

func NewVolume(f float64) Volume     { return Volume{value: decimal.NewFromFloat(f)} }
func NewFuel(f float64) Fuel         { return Fuel{value: decimal.NewFromFloat(f)} }
func NewDistance(f float64) Distance { return Distance{value: decimal.NewFromFloat(f)} }
func NewCost(f float64) Cost         { return Cost{value: decimal.NewFromFloat(f)} }

var (
	ZeroVolume   = Volume{value: decimal.Zero}
	ZeroFuel     = Fuel{value: decimal.Zero}
	ZeroDistance = Distance{value: decimal.Zero}
	ZeroCost     = Cost{value: decimal.Zero}
	InfCost      = Cost{value: decimal.NewFromFloat(1e18)}
)

// Volume arithmetic

func (v Volume) Add(o Volume) Volume { return Volume{v.value.Add(o.value)} }
func (v Volume) Sub(o Volume) Volume { return Volume{v.value.Sub(o.value)} }
func (v Volume) Min(o Volume) Volume {
	if v.value.LessThan(o.value) {
		return v
	}
	return o
}
func (v Volume) Cmp(o Volume) int        { return v.value.Cmp(o.value) }
func (v Volume) LessThan(o Volume) bool  { return v.value.LessThan(o.value) }
func (v Volume) GreaterThan(o Volume) bool { return v.value.GreaterThan(o.value) }
func (v Volume) IsZero() bool            { return v.value.IsZero() }
func (v Volume) IsNegative() bool        { return v.value.IsNegative() }
func (v Volume) Float64() float64        { f, _ := v.value.Float64(); return f }
func (v Volume) String() string          { return fmt.Sprintf("%sm3", v.value.StringFixed(3)) }

// Fuel arithmetic

func (f Fuel) Add(o Fuel) Fuel { return Fuel{f.value.Add(o.value)} }
func (f Fuel) Sub(o Fuel) Fuel { return Fuel{f.value.Sub(o.value)} }
func (f Fuel) Cmp(o Fuel) int        { return f.value.Cmp(o.value) }
func (f Fuel) LessThan(o Fuel) bool  { return f.value.LessThan(o.value) }
func (f Fuel) IsNegative() bool      { return f.value.IsNegative() }
func (f Fuel) Float64() float64      { v, _ := f.value.Float64(); return v }
func (f Fuel) String() string        { return fmt.Sprintf("%sgal", f.value.StringFixed(3)) }

// Distance arithmetic

func (d Distance) Add(o Distance) Distance { return Distance{d.value.Add(o.value)} }
func (d Distance) Float64() float64        { v, _ := d.value.Float64(); return v }
func (d Distance) String() string          { return d.value.StringFixed(2) }

// Cost arithmetic

func (c Cost) Add(o Cost) Cost       { return Cost{c.value.Add(o.value)} }
func (c Cost) Mul(f float64) Cost    { return Cost{c.value.Mul(decimal.NewFromFloat(f))} }
func (c Cost) Cmp(o Cost) int        { return c.value.Cmp(o.value) }
func (c Cost) LessThan(o Cost) bool  { return c.value.LessThan(o.value) }
func (c Cost) Float64() float64      { v, _ := c.value.Float64(); return v }
func (c Cost) IsInf() bool           { return c.value.GreaterThanOrEqual(InfCost.value) }
func (c Cost) String() string        { return c.value.StringFixed(4) }

// FuelForDistance computes the fuel cost (gallons) of travelling a given
// distance while carrying tareTons tare weight and glp cubic metres of GLP,
// per spec §3: |d * (tare + glp*0.5) / 360|.
func FuelForDistance(d Distance, tareTons float64, glp Volume) Fuel {
	loadedWeight := tareTons + glp.Float64()*GLPDensityTPerM3
	raw := d.Float64() * loadedWeight / ConsumptionFactor
	if raw < 0 {
		raw = -raw
	}
	return NewFuel(raw)
}
