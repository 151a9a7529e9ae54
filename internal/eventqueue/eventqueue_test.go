package eventqueue

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrdersByTime(t *testing.T) {
	q := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	q.Push(EventOrderArrival, base.Add(3*time.Minute), uuid.New(), nil)
	q.Push(EventBlockageStart, base.Add(1*time.Minute), uuid.New(), nil)
	q.Push(EventDepotRefill, base.Add(2*time.Minute), uuid.New(), nil)

	e1, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, EventBlockageStart, e1.Type)

	e2, _ := q.Pop()
	assert.Equal(t, EventDepotRefill, e2.Type)

	e3, _ := q.Pop()
	assert.Equal(t, EventOrderArrival, e3.Type)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestQueueTiesBreakByInsertionOrder(t *testing.T) {
	q := New()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first := uuid.New()
	second := uuid.New()
	q.Push(EventOrderArrival, at, first, nil)
	q.Push(EventOrderArrival, at, second, nil)

	e1, _ := q.Pop()
	e2, _ := q.Pop()
	assert.Equal(t, first, e1.RefID)
	assert.Equal(t, second, e2.RefID)
}

func TestDrainDue(t *testing.T) {
	q := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	q.Push(EventOrderArrival, base, uuid.New(), nil)
	q.Push(EventOrderArrival, base.Add(5*time.Minute), uuid.New(), nil)
	q.Push(EventOrderArrival, base.Add(10*time.Minute), uuid.New(), nil)

	due := q.DrainDue(base.Add(5 * time.Minute))
	assert.Len(t, due, 2)
	assert.Equal(t, 1, q.Len())
}
