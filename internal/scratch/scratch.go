// Package scratch provides pooled scratch buffers for handshake crypto
// computations. Signature content buffers, transcript digests and premaster
// staging all live for exactly one call; pooling them keeps the hot path
// allocation-free, and the budget turns runaway allocation into an error the
// handshake can surface instead of an OOM kill.
package scratch

import (
	"sync"
	"sync/atomic"

	tlserrors "github.com/refraction-networking/tlscore/errors"
)

var (
	ErrInvalidSize = tlserrors.New("scratch: invalid buffer size").AtError()
	ErrExhausted   = tlserrors.New("scratch: memory budget exceeded").AtError()
)

// Tiers match the core's allocation profile: signature content buffers
// (98 bytes + digest), binder scratch, and FFDHE premaster secrets
// (up to 1024 bytes for ffdhe8192).
const (
	size128B = 128
	size512B = 512
	size2KB  = 2048

	// Largest single request honored; anything bigger is a caller bug.
	maxRequest = 1 << 20

	// Default budget. Generous for a crypto core whose live scratch at any
	// instant is a few KB per in-flight handshake.
	defaultBudget = 4 << 20
)

// Pools carry no New func: an empty pool returns nil, which is how Get
// distinguishes reuse from fresh allocation for budget accounting.
var (
	pool128B sync.Pool
	pool512B sync.Pool
	pool2KB  sync.Pool
)

var (
	budget atomic.Int64 // configured limit
	inUse  atomic.Int64 // bytes handed out and not yet returned

	// Tracks each outstanding buffer's allocation size keyed by its slice
	// header pointer. The header pointer stays stable even if a caller grows
	// the buffer, so accounting never underflows on misuse.
	originalSizes sync.Map
)

func init() {
	budget.Store(defaultBudget)
}

// SetBudget replaces the global scratch budget. n <= 0 restores the default.
func SetBudget(n int64) {
	if n <= 0 {
		n = defaultBudget
	}
	budget.Store(n)
}

// InUse returns the bytes currently checked out.
func InUse() int64 {
	return inUse.Load()
}

func tierFor(n int) int {
	switch {
	case n <= size128B:
		return size128B
	case n <= size512B:
		return size512B
	case n <= size2KB:
		return size2KB
	default:
		return n
	}
}

func poolFor(allocSize int) *sync.Pool {
	switch allocSize {
	case size128B:
		return &pool128B
	case size512B:
		return &pool512B
	case size2KB:
		return &pool2KB
	default:
		return nil
	}
}

// Get returns a zeroed scratch buffer with capacity of at least minSize,
// sliced to full capacity. The caller must return it with Put on every exit
// path. Get fails with ErrExhausted when the outstanding scratch would
// exceed the budget.
func Get(minSize int) (*[]byte, error) {
	if minSize < 0 {
		return nil, ErrInvalidSize
	}
	if minSize > maxRequest {
		return nil, ErrInvalidSize
	}

	allocSize := tierFor(minSize)

	if inUse.Add(int64(allocSize)) > budget.Load() {
		inUse.Add(-int64(allocSize))
		return nil, ErrExhausted
	}

	var buf *[]byte
	if p := poolFor(allocSize); p != nil {
		if reused := p.Get(); reused != nil {
			buf = reused.(*[]byte)
		}
	}
	if buf == nil {
		b := make([]byte, allocSize)
		buf = &b
	}

	*buf = (*buf)[:cap(*buf)]
	originalSizes.Store(buf, int64(allocSize))
	return buf, nil
}

// Put zeroes the buffer and returns it to its tier. Buffers that were grown
// past their tier are dropped for the GC rather than poisoning a pool.
// Put(nil) is a no-op so it can sit in a defer unconditionally.
func Put(buf *[]byte) {
	if buf == nil || *buf == nil {
		return
	}

	var allocSize int64
	if v, ok := originalSizes.LoadAndDelete(buf); ok {
		allocSize = v.(int64)
	}
	if allocSize > 0 {
		inUse.Add(-allocSize)
	}

	// Scratch carried key material; wipe the full capacity.
	clear((*buf)[:cap(*buf)])

	if p := poolFor(cap(*buf)); p != nil && int64(cap(*buf)) == allocSize {
		*buf = (*buf)[:0]
		p.Put(buf)
	}
}
