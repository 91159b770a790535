package stats

// ring is a fixed-size circular buffer of hour snapshots.
type ring struct {
	data  []HourSnapshot
	head  int
	count int
	size  int
}

func newRing(size int) *ring {
	return &ring{
		data: make([]HourSnapshot, size),
		size: size,
	}
}

// push appends a snapshot, overwriting the oldest one when full.
func (r *ring) push(s HourSnapshot) {
	r.data[r.head] = s
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// last returns a pointer to the most recent snapshot, or nil when empty.
// The pointer is only valid while the caller holds the owning lock.
func (r *ring) last() *HourSnapshot {
	if r.count == 0 {
		return nil
	}
	return &r.data[(r.head-1+r.size)%r.size]
}

// each visits snapshots oldest first.
func (r *ring) each(fn func(HourSnapshot)) {
	start := (r.head - r.count + r.size) % r.size
	for i := 0; i < r.count; i++ {
		fn(r.data[(start+i)%r.size])
	}
}

func (r *ring) all() []HourSnapshot {
	if r.count == 0 {
		return nil
	}
	out := make([]HourSnapshot, 0, r.count)
	r.each(func(s HourSnapshot) { out = append(out, s) })
	return out
}
