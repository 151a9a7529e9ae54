package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Blockage is a time-windowed street closure described by an ordered
// poly-line of axis-aligned segments (spec §3). The set of blocked cells is
// precomputed at construction.
type Blockage struct {
	ID        uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	PolyLine  []Position

	blocked map[Position]struct{}
}

// NewBlockage validates that consecutive poly-line segments are
// axis-aligned and precomputes the blocked-cell set.
func NewBlockage(id uuid.UUID, start, end time.Time, polyLine []Position) (*Blockage, error) {
	b := &Blockage{
		ID:        id,
		StartTime: start,
		EndTime:   end,
		PolyLine:  polyLine,
		blocked:   make(map[Position]struct{}),
	}
	if err := b.precompute(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Blockage) precompute() error {
	if len(b.PolyLine) == 0 {
		return fmt.Errorf("blockage: empty poly-line")
	}
	b.blocked[b.PolyLine[0]] = struct{}{}

	for i := 0; i+1 < len(b.PolyLine); i++ {
		a, c := b.PolyLine[i], b.PolyLine[i+1]
		if a.X != c.X && a.Y != c.Y {
			return fmt.Errorf("blockage: segment %v-%v is not axis-aligned", a, c)
		}
		if a.X == c.X {
			step := 1
			if c.Y < a.Y {
				step = -1
			}
			for y := a.Y; ; y += step {
				b.blocked[Position{a.X, y}] = struct{}{}
				if y == c.Y {
					break
				}
			}
		} else {
			step := 1
			if c.X < a.X {
				step = -1
			}
			for x := a.X; ; x += step {
				b.blocked[Position{x, a.Y}] = struct{}{}
				if x == c.X {
					break
				}
			}
		}
	}
	return nil
}

// Active reports whether t falls within [start_time, end_time] inclusive
// (spec §3, §9 open question: this spec mandates inclusive bounds).
func (b *Blockage) Active(t time.Time) bool {
	return !t.Before(b.StartTime) && !t.After(b.EndTime)
}

// Blocks reports whether pos is part of this blockage's precomputed cell
// set, irrespective of time — callers combine this with Active(t).
func (b *Blockage) Blocks(pos Position) bool {
	_, ok := b.blocked[pos]
	return ok
}

// Clone returns a deep copy.
func (b *Blockage) Clone() *Blockage {
	cp := *b
	cp.PolyLine = append([]Position(nil), b.PolyLine...)
	cp.blocked = make(map[Position]struct{}, len(b.blocked))
	for k := range b.blocked {
		cp.blocked[k] = struct{}{}
	}
	return &cp
}
