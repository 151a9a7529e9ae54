package plan

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/terminal-bench/glp-fleet/internal/model"
)

func TestPlanAppendAndAggregates(t *testing.T) {
	vehicleID := uuid.New()
	p := NewPlan(vehicleID)
	assert.True(t, p.IsEmpty())

	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	p.Append(Action{
		Type:          ActionDrive,
		ExpectedStart: start,
		ExpectedEnd:   start.Add(3 * time.Minute),
		Path: []model.Position{
			{0, 0}, {1, 0}, {2, 0}, {3, 0},
		},
	})
	p.Append(Action{
		Type:          ActionServe,
		ExpectedStart: start.Add(3 * time.Minute),
		ExpectedEnd:   start.Add(13 * time.Minute),
		OrderID:       uuid.New(),
	})

	assert.False(t, p.IsEmpty())
	assert.Equal(t, start.Add(13*time.Minute), p.LastEnd())
	assert.InDelta(t, 3, p.TotalDistance().Float64(), 1e-9)
}

func TestPlanCloneIsIndependent(t *testing.T) {
	p := NewPlan(uuid.New())
	p.Append(Action{Type: ActionDrive, Path: []model.Position{{0, 0}, {1, 0}}})

	cp := p.Clone()
	cp.Actions[0].Path[0] = model.Position{9, 9}

	assert.Equal(t, model.Position{0, 0}, p.Actions[0].Path[0])
}

func TestSolutionPlanForCreatesOnDemand(t *testing.T) {
	s := NewSolution()
	vehicleID := uuid.New()
	p1 := s.PlanFor(vehicleID)
	p2 := s.PlanFor(vehicleID)
	assert.Same(t, p1, p2)
}
