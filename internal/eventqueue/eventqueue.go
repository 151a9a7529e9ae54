// Package eventqueue implements the time-ordered priority queue of
// simulation events consumed by the orchestrator's tick loop (spec §2,
// §4.G), using the same container/heap idiom as internal/grid applied to
// time instead of f-score.
package eventqueue

import (
	"container/heap"
	"time"

	"github.com/google/uuid"
)

// EventType tags the kind of domain occurrence an Event carries (spec §4.G).
type EventType string

const (
	EventOrderArrival     EventType = "ORDER_ARRIVAL"
	EventOrderDelivered   EventType = "ORDER_DELIVERED"
	EventBlockageStart    EventType = "BLOCKAGE_START"
	EventBlockageEnd      EventType = "BLOCKAGE_END"
	EventVehicleBreakdown EventType = "VEHICLE_BREAKDOWN"
	EventMaintenanceStart EventType = "MAINTENANCE_START"
	EventMaintenanceEnd   EventType = "MAINTENANCE_END"
	EventDepotRefill      EventType = "DEPOT_REFILL"
	EventReplanTriggered  EventType = "REPLAN_TRIGGERED"
	EventCheckpoint       EventType = "CHECKPOINT"
	EventSimulationEnd    EventType = "SIMULATION_END"
)

// Event is one entry in the queue: a type, the simulated time it is due, a
// reference entity id, and an opaque payload the orchestrator interprets by
// Type.
type Event struct {
	Type    EventType
	At      time.Time
	RefID   uuid.UUID
	Payload interface{}

	seq   int64 // insertion order, breaks ties between equal At
	index int   // heap index
}

// Queue is a time-ordered min-heap of Events; events scheduled for the same
// instant are drained in the order they were pushed (spec §4.G: "ties broken
// by insertion order").
type Queue struct {
	h      eventHeap
	nextSeq int64
}

// New constructs an empty Queue.
func New() *Queue {
	q := &Queue{}
	heap.Init(&q.h)
	return q
}

// Push schedules an event at the given time.
func (q *Queue) Push(typ EventType, at time.Time, refID uuid.UUID, payload interface{}) {
	e := &Event{Type: typ, At: at, RefID: refID, Payload: payload, seq: q.nextSeq}
	q.nextSeq++
	heap.Push(&q.h, e)
}

// Len reports the number of pending events.
func (q *Queue) Len() int { return q.h.Len() }

// Peek returns the earliest pending event without removing it, and false if
// the queue is empty.
func (q *Queue) Peek() (*Event, bool) {
	if q.h.Len() == 0 {
		return nil, false
	}
	return q.h[0], true
}

// Pop removes and returns the earliest pending event, and false if the queue
// is empty.
func (q *Queue) Pop() (*Event, bool) {
	if q.h.Len() == 0 {
		return nil, false
	}
	return heap.Pop(&q.h).(*Event), true
}

// DrainDue pops and returns every event whose At is not after t, in time
// order (spec §4.G: "a tick drains all events due at or before sim_time").
func (q *Queue) DrainDue(t time.Time) []*Event {
	var due []*Event
	for {
		e, ok := q.Peek()
		if !ok || e.At.After(t) {
			break
		}
		popped, _ := q.Pop()
		due = append(due, popped)
	}
	return due
}

type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].At.Equal(h[j].At) {
		return h[i].seq < h[j].seq
	}
	return h[i].At.Before(h[j].At)
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *eventHeap) Push(x interface{}) {
	e := x.(*Event)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
