package log

import (
	"fmt"
	"io"
	"sync"
)

// DefaultRingCapacity is used when [NewRing] is given a non-positive capacity.
const DefaultRingCapacity = 256

// Ring holds the most recent log records written to it. It is used while an
// interactive prompt owns the terminal, so that records emitted meanwhile can
// be replayed to stderr once the prompt closes instead of corrupting it.
//
// Each call to Write is one record. When the ring is full the oldest record
// is dropped and counted.
type Ring struct {
	records [][]byte
	head    int
	size    int
	dropped int
	mu      sync.Mutex
}

// NewRing creates a [Ring] holding at most capacity records.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}

	return &Ring{records: make([][]byte, capacity)}
}

// Write implements [io.Writer]. The data is copied.
func (r *Ring) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[r.head] = append([]byte(nil), p...)
	r.head = (r.head + 1) % len(r.records)

	if r.size == len(r.records) {
		r.dropped++
	} else {
		r.size++
	}

	return len(p), nil
}

// Records returns copies of the held records, oldest first.
func (r *Ring) Records() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshot()
}

func (r *Ring) snapshot() [][]byte {
	out := make([][]byte, 0, r.size)

	start := (r.head - r.size + len(r.records)) % len(r.records)
	for i := range r.size {
		rec := r.records[(start+i)%len(r.records)]
		out = append(out, append([]byte(nil), rec...))
	}

	return out
}

// Size returns the number of records held.
func (r *Ring) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.size
}

// Capacity returns the maximum number of records held.
func (r *Ring) Capacity() int {
	return len(r.records)
}

// IsFull reports whether the next write will drop a record.
func (r *Ring) IsFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.size == len(r.records)
}

// Dropped returns how many records were overwritten.
func (r *Ring) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.dropped
}

// WriteTo implements [io.WriterTo]. It writes the held records to w, oldest
// first, and empties the ring.
func (r *Ring) WriteTo(w io.Writer) (int64, error) {
	r.mu.Lock()
	records := r.snapshot()
	dropped := r.dropped
	clear(r.records)
	r.head, r.size, r.dropped = 0, 0, 0
	r.mu.Unlock()

	var total int64

	if dropped > 0 {
		n, err := fmt.Fprintf(w, "... %d earlier log records dropped\n", dropped)
		total += int64(n)

		if err != nil {
			return total, fmt.Errorf("write record: %w", err)
		}
	}

	for _, rec := range records {
		n, err := w.Write(rec)
		total += int64(n)

		if err != nil {
			return total, fmt.Errorf("write record: %w", err)
		}
	}

	return total, nil
}
