package services

import (
	"sync"
	"time"
)

// IDGenerator hands out candidate ids for new records.
type IDGenerator interface {
	NextID() int64
}

// ClockIDGenerator derives ids from the wall clock in milliseconds and never
// returns the same value twice within a process.
type ClockIDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewClockIDGenerator() *ClockIDGenerator {
	return &ClockIDGenerator{now: time.Now}
}

func (g *ClockIDGenerator) NextID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
