package feed

import "sync/atomic"

// Latest holds the last-known-good record. Readers never observe a
// partially built record: publication is a single pointer swap.
type Latest struct {
	p atomic.Pointer[Record]
}

// Publish replaces the current record.
func (l *Latest) Publish(r *Record) {
	l.p.Store(r)
}

// Load returns the current record, or nil before the first accepted line.
func (l *Latest) Load() *Record {
	return l.p.Load()
}
