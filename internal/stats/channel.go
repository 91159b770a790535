// Package stats keeps bounded rolling min/max/current statistics for the
// station's sensor channels.
//
// Each Channel retains one HourSnapshot per UTC hour for the last 24 hours.
// Hour boundaries come from the sensor record timestamp, never the wall clock,
// so replayed or delayed data lands in the hour it was measured.
package stats

import "sync"

// HistoryHours is the number of hourly snapshots a channel retains.
const HistoryHours = 24

// Timestamp layout positions within a sensor record "ts" field:
// a one-character prefix, YYYYMMDDhh, then mmss.
const (
	hourKeyStart = 1
	hourKeyEnd   = 11
	minSecEnd    = 15
)

// HourSnapshot holds the extremes and latest value seen within one hour.
type HourSnapshot struct {
	Hour    string // YYYYMMDDhh, empty when the timestamp was too short
	Max     float64
	Min     float64
	Current float64
}

// Channel tracks rolling statistics for one physical measurement.
// It is safe for concurrent use.
type Channel struct {
	mu     sync.RWMutex
	policy Policy
	hours  *ring
}

// NewChannel creates a channel retaining HistoryHours snapshots.
func NewChannel(policy Policy) *Channel {
	return &Channel{
		policy: policy,
		hours:  newRing(HistoryHours),
	}
}

// Policy returns the comparison policy the channel was created with.
func (c *Channel) Policy() Policy {
	return c.policy
}

// HourKey extracts the YYYYMMDDhh portion of a record timestamp.
func HourKey(ts string) string {
	if len(ts) < hourKeyEnd {
		return ""
	}
	return ts[hourKeyStart:hourKeyEnd]
}

// IsHourBoundary reports whether the timestamp is the first second of an hour.
func IsHourBoundary(ts string) bool {
	return len(ts) >= minSecEnd && ts[hourKeyEnd:minSecEnd] == "0000"
}

// Update records a new value observed at the given record timestamp.
//
// A fresh snapshot seeded with value is started when the channel is empty,
// the timestamp is the first second of an hour, or it belongs to a different
// hour than the newest snapshot. Otherwise the newest snapshot is updated in
// place.
func (c *Channel) Update(value float64, ts string) {
	key := HourKey(ts)

	c.mu.Lock()
	defer c.mu.Unlock()

	last := c.hours.last()
	if last == nil || last.Hour != key || IsHourBoundary(ts) {
		c.hours.push(HourSnapshot{Hour: key, Max: value, Min: value, Current: value})
		return
	}

	last.Current = value
	if c.policy.greater(value, last.Max) {
		last.Max = value
	}
	if c.policy.less(value, last.Min) {
		last.Min = value
	}
}

// Max returns the maximum for the mode's window. ok is false when no value
// has been recorded yet.
func (c *Channel) Max(mode DisplayMode) (value float64, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	last := c.hours.last()
	if last == nil {
		return 0, false
	}
	if mode == ModeHourly {
		return last.Max, true
	}

	value = last.Max
	c.hours.each(func(s HourSnapshot) {
		if c.policy.greater(s.Max, value) {
			value = s.Max
		}
	})
	return value, true
}

// Min returns the minimum for the mode's window. ok is false when no value
// has been recorded yet.
func (c *Channel) Min(mode DisplayMode) (value float64, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	last := c.hours.last()
	if last == nil {
		return 0, false
	}
	if mode == ModeHourly {
		return last.Min, true
	}

	value = last.Min
	c.hours.each(func(s HourSnapshot) {
		if c.policy.less(s.Min, value) {
			value = s.Min
		}
	})
	return value, true
}

// Current returns the most recently recorded value.
func (c *Channel) Current() (value float64, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	last := c.hours.last()
	if last == nil {
		return 0, false
	}
	return last.Current, true
}

// Len returns the number of retained hourly snapshots.
func (c *Channel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hours.count
}

// Snapshots returns a copy of the retained snapshots, oldest first.
func (c *Channel) Snapshots() []HourSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hours.all()
}
