package clinic

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator issues timestamp-based entity ids. An id is never handed out
// twice by the same generator and never collides with ids the caller reports
// as taken.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewIDGenerator creates a generator backed by the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// NewIDGeneratorWithClock allows injecting a clock for tests.
func NewIDGeneratorWithClock(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a fresh id. taken may be nil.
func (g *IDGenerator) Next(taken func(id string) bool) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	candidate := g.now().UnixMilli()
	if candidate <= g.last {
		candidate = g.last + 1
	}
	for taken != nil && taken(strconv.FormatInt(candidate, 10)) {
		candidate++
	}
	g.last = candidate
	return strconv.FormatInt(candidate, 10)
}

// NextFor returns an id unused in list.
func NextFor[T Entity](g *IDGenerator, list []T) string {
	return g.Next(func(id string) bool { return ContainsID(list, id) })
}
