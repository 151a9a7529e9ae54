package grid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/glp-fleet/internal/model"
)

type staticBlocker map[model.Position]struct{}

func (s staticBlocker) BlockedAt(pos model.Position, t time.Time) bool {
	_, ok := s[pos]
	return ok
}

func TestFindPathStraightLine(t *testing.T) {
	g := New(10, 10, DefaultSpeedKPH)
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	p, err := g.FindPath(model.Position{0, 0}, model.Position{3, 0}, now, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, len(p.Cells))
	assert.Equal(t, 135*time.Second, p.Duration) // 3 cells / 80kph * 60 = 2.25min
	assert.Equal(t, model.Position{0, 0}, p.Cells[0])
	assert.Equal(t, model.Position{3, 0}, p.Cells[len(p.Cells)-1])
}

func TestFindPathSameCell(t *testing.T) {
	g := New(5, 5, DefaultSpeedKPH)
	p, err := g.FindPath(model.Position{2, 2}, model.Position{2, 2}, time.Now(), nil)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), p.Duration)
	assert.Len(t, p.Cells, 1)
}

func TestFindPathDetoursAroundBlockage(t *testing.T) {
	g := New(5, 5, DefaultSpeedKPH)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	blocked := staticBlocker{
		{2, 0}: {}, {2, 1}: {}, {2, 2}: {}, {2, 3}: {}, // (2,4) left open
	}
	p, err := g.FindPath(model.Position{0, 2}, model.Position{4, 2}, now, blocked)
	require.NoError(t, err)
	for _, c := range p.Cells {
		_, isBlocked := blocked[c]
		assert.False(t, isBlocked, "path must not cross blocked column")
	}
}

func TestFindPathNoRouteWhenBoxedIn(t *testing.T) {
	g := New(5, 5, DefaultSpeedKPH)
	now := time.Now()
	blocked := staticBlocker{
		{1, 0}: {}, {0, 1}: {}, {1, 1}: {},
	}
	_, err := g.FindPath(model.Position{0, 0}, model.Position{4, 4}, now, blocked)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestFindPathOutOfBounds(t *testing.T) {
	g := New(5, 5, DefaultSpeedKPH)
	_, err := g.FindPath(model.Position{0, 0}, model.Position{10, 10}, time.Now(), nil)
	assert.ErrorIs(t, err, ErrNoPath)
}
