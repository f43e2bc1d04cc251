// Package telemetry aggregates statement statistics from a client's
// middleware chain.
package telemetry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/satishbabariya/docsql/runtime/client"
)

// TypeStats holds counters for one statement type
type TypeStats struct {
	Type   string
	Count  int
	Errors int
	Total  time.Duration
	Max    time.Duration
}

// Average returns the mean statement duration
func (s TypeStats) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Snapshot is a point-in-time copy of the collected statistics
type Snapshot struct {
	Statements int
	Errors     int
	Total      time.Duration
	// Types is sorted by statement type
	Types   []TypeStats
	Since   time.Time
	LastSQL string
}

// Collector records every statement passing through Middleware
type Collector struct {
	mu      sync.Mutex
	types   map[string]*TypeStats
	since   time.Time
	lastSQL string
	now     func() time.Time
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	c := &Collector{now: time.Now}
	c.Reset()
	return c
}

// Middleware returns a client middleware feeding this collector
func (c *Collector) Middleware() client.Middleware {
	return func(ctx context.Context, event *client.QueryEvent, next func() error) error {
		err := next()
		c.Record(event.Type, event.SQL, event.Duration, err)
		return err
	}
}

// Record adds one statement outcome
func (c *Collector) Record(stmtType, sql string, duration time.Duration, err error) {
	if stmtType == "" {
		stmtType = "OTHER"
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.types[stmtType]
	if !ok {
		s = &TypeStats{Type: stmtType}
		c.types[stmtType] = s
	}
	s.Count++
	s.Total += duration
	if duration > s.Max {
		s.Max = duration
	}
	if err != nil {
		s.Errors++
	}
	c.lastSQL = sql
}

// Snapshot copies the current statistics
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{Since: c.since, LastSQL: c.lastSQL}
	for _, s := range c.types {
		snap.Types = append(snap.Types, *s)
		snap.Statements += s.Count
		snap.Errors += s.Errors
		snap.Total += s.Total
	}
	sort.Slice(snap.Types, func(i, j int) bool {
		return snap.Types[i].Type < snap.Types[j].Type
	})
	return snap
}

// Reset clears all counters
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = make(map[string]*TypeStats)
	c.since = c.now()
	c.lastSQL = ""
}
