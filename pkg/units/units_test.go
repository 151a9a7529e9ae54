package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolumeArithmetic(t *testing.T) {
	a := NewVolume(10)
	b := NewVolume(4)

	assert.Equal(t, 14.0, a.Add(b).Float64())
	assert.Equal(t, 6.0, a.Sub(b).Float64())
	assert.Equal(t, 4.0, a.Min(b).Float64())
	assert.False(t, a.IsNegative())
	assert.True(t, ZeroVolume.IsZero())
}

func TestFuelForDistance(t *testing.T) {
	t.Run("matches spec formula for a loaded TA vehicle", func(t *testing.T) {
		d := NewDistance(360)
		tare := 2.5
		glp := NewVolume(10) // 10 * 0.5 = 5 tons of GLP

		fuel := FuelForDistance(d, tare, glp)
		// |360 * (2.5 + 5) / 360| = 7.5
		assert.InDelta(t, 7.5, fuel.Float64(), 1e-9)
	})

	t.Run("zero distance consumes no fuel", func(t *testing.T) {
		fuel := FuelForDistance(ZeroDistance, 2.5, NewVolume(10))
		assert.True(t, fuel.Float64() == 0)
	})
}

func TestCostInf(t *testing.T) {
	assert.True(t, InfCost.IsInf())
	assert.False(t, NewCost(100).IsInf())
}
