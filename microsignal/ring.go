package microsignal

// boolRing is a fixed capacity ring of booleans.  Capacity is baked in at
// construction, pushing past it overwrites the oldest entry
type boolRing struct {
	buf  []bool
	next int
	n    int
}

func newBoolRing(capacity int) *boolRing {
	return &boolRing{
		buf: make([]bool, capacity),
	}
}

// Push adds a value, dropping the oldest when the ring is full
func (r *boolRing) Push(v bool) {
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)

	if r.n < len(r.buf) {
		r.n++
	}
}

// Len is the number of values currently held
func (r *boolRing) Len() int {
	return r.n
}

// Count is the number of true values currently held
func (r *boolRing) Count() int {
	count := 0

	for i := 0; i < r.n; i++ {
		if r.buf[i] {
			count++
		}
	}

	return count
}

// frameSnapshot records the signals computed for one frame
type frameSnapshot struct {
	Timestamp float64
	Signals   map[Signal]MicroSignal
}

// frameRing is a fixed capacity ring of recent frame snapshots
type frameRing struct {
	buf  []frameSnapshot
	next int
	n    int
}

func newFrameRing(capacity int) *frameRing {
	return &frameRing{
		buf: make([]frameSnapshot, capacity),
	}
}

// Push adds a snapshot, dropping the oldest when the ring is full
func (r *frameRing) Push(s frameSnapshot) {
	r.buf[r.next] = s
	r.next = (r.next + 1) % len(r.buf)

	if r.n < len(r.buf) {
		r.n++
	}
}

// Len is the number of snapshots currently held
func (r *frameRing) Len() int {
	return r.n
}

// Recent returns the held snapshots ordered oldest to newest
func (r *frameRing) Recent() []frameSnapshot {
	out := make([]frameSnapshot, 0, r.n)
	start := r.next - r.n

	if start < 0 {
		start += len(r.buf)
	}

	for i := 0; i < r.n; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}

	return out
}
