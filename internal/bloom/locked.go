package bloom

import "sync"

// Locked makes a Membership safe for concurrent use. Writers (Add, AddMany)
// take the exclusive lock; readers (Check, CheckMany, introspection) share
// the read lock, so many checks run in parallel while a single add is
// applied at a time. Locked is itself a Membership, so it can be persisted
// like the filter it wraps.
type Locked struct {
	mu sync.RWMutex
	m  Membership
}

var _ Membership = (*Locked)(nil)

// NewLocked wraps m. The caller must not use m directly afterwards.
func NewLocked(m Membership) *Locked {
	return &Locked{m: m}
}

func (l *Locked) Add(key []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m.Add(key)
}

// AddMany inserts every key under one lock acquisition.
func (l *Locked) AddMany(keys [][]byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		l.m.Add(k)
	}
}

func (l *Locked) Check(key []byte) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.m.Check(key)
}

// CheckMany tests every key under one read lock. The results are in input
// order.
func (l *Locked) CheckMany(keys [][]byte) []bool {
	results := make([]bool, len(keys))

	l.mu.RLock()
	defer l.mu.RUnlock()
	for i, k := range keys {
		results[i] = l.m.Check(k)
	}
	return results
}

func (l *Locked) ElementCount() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.m.ElementCount()
}

// Bytes returns a consistent copy of the bitfield.
func (l *Locked) Bytes() []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.m.Bytes()
}

func (l *Locked) HashCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.m.HashCount()
}

func (l *Locked) Size() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.m.Size()
}

func (l *Locked) Capacity() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.m.Capacity()
}

func (l *Locked) Strategy() Strategy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.m.Strategy()
}

// Hash reports the seeded primitive of the wrapped filter, or 0.
func (l *Locked) Hash() Hash {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return HashOf(l.m)
}

// Bitfield returns a copy taken under the read lock. Unlike the unwrapped
// filters it never aliases state that a concurrent Add could change.
func (l *Locked) Bitfield() Bitfield {
	return Bitfield(l.Bytes())
}

func (l *Locked) FalsePositiveRate() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.m.FalsePositiveRate()
}

// View runs fn with the read lock held. fn must not call Add on m, and must
// not retain m.Bitfield() after it returns.
func (l *Locked) View(fn func(m Membership) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(l.m)
}
