package history

import (
	"github.com/danielpatrickdp/tau-anchor/internal/anchor"
	"github.com/danielpatrickdp/tau-anchor/internal/faults"
)

// DefaultCapacity is the standard N_max.
const DefaultCapacity = 10_000

// #region entry

// Entry is one step's record. Entries are values; the buffer never hands out
// references into its storage.
type Entry struct {
	Step     uint64       `json:"step"`
	Harmonic float64      `json:"harmonic"`
	Anchor   anchor.State `json:"anchor"`
}

// #endregion entry

// #region buffer

// Buffer is a bounded FIFO of entries in step order, backed by a ring.
// It belongs to a single run and is not safe for concurrent mutation;
// other goroutines must read a Snapshot.
type Buffer struct {
	entries []Entry
	head    int // index of the oldest entry
	size    int
}

// New returns an empty buffer holding at most capacity entries.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, faults.Configf("history_cap", "must be > 0, got %d", capacity)
	}
	return &Buffer{entries: make([]Entry, capacity)}, nil
}

// Append stores a new entry, evicting the oldest once the buffer is full.
func (b *Buffer) Append(step uint64, harmonic float64, a anchor.State) {
	e := Entry{Step: step, Harmonic: harmonic, Anchor: a}
	if b.size < len(b.entries) {
		b.entries[(b.head+b.size)%len(b.entries)] = e
		b.size++
		return
	}
	b.entries[b.head] = e
	b.head = (b.head + 1) % len(b.entries)
}

// Len is the current number of entries. A nil buffer is empty.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return b.size
}

// Cap is N_max.
func (b *Buffer) Cap() int { return len(b.entries) }

// Latest returns the newest entry.
func (b *Buffer) Latest() (Entry, bool) {
	if b.Len() == 0 {
		return Entry{}, false
	}
	return b.at(b.size - 1), true
}

// Recent returns a copy of the last k entries, oldest first. k is clamped to
// Len; a negative k is rejected.
func (b *Buffer) Recent(k int) ([]Entry, error) {
	if k < 0 {
		return nil, &faults.InvalidArgumentError{Arg: "k", Value: k, Reason: "must be >= 0"}
	}
	if k > b.size {
		k = b.size
	}
	out := make([]Entry, k)
	start := b.size - k
	for i := range out {
		out[i] = b.at(start + i)
	}
	return out, nil
}

// Snapshot copies every entry, oldest first.
func (b *Buffer) Snapshot() []Entry {
	out, _ := b.Recent(b.size)
	return out
}

// Values copies the harmonic values of every entry, oldest first.
func (b *Buffer) Values() []float64 {
	out := make([]float64, b.size)
	for i := range out {
		out[i] = b.at(i).Harmonic
	}
	return out
}

// at returns the i-th entry counted from the oldest.
func (b *Buffer) at(i int) Entry {
	return b.entries[(b.head+i)%len(b.entries)]
}

// #endregion buffer

// #region statistics

// Mean is the arithmetic mean of the last k harmonic values. With fewer than
// two samples it returns 0.
func (b *Buffer) Mean(k int) (float64, error) {
	vals, err := b.recentValues(k)
	if err != nil {
		return 0, err
	}
	if len(vals) < 2 {
		return 0, nil
	}
	return mean(vals), nil
}

// Variance is the population variance of the last k harmonic values. With
// fewer than two samples it returns exactly 0, never NaN.
func (b *Buffer) Variance(k int) (float64, error) {
	vals, err := b.recentValues(k)
	if err != nil {
		return 0, err
	}
	if len(vals) < 2 {
		return 0, nil
	}
	m := mean(vals)
	var sum float64
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(vals)), nil
}

func (b *Buffer) recentValues(k int) ([]float64, error) {
	entries, err := b.Recent(k)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, len(entries))
	for i, e := range entries {
		vals[i] = e.Harmonic
	}
	return vals, nil
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// #endregion statistics
