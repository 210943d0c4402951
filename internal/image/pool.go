package image

import "sync"

// Pool is a thread-safe pool for reusing Buf instances of equal size.
//
// Buffers are grouped by dimensions, so one Pool can serve several
// resample targets. A buffer returned by Get keeps whatever pixels it held
// when it was Put; callers that read before writing must Clear it.
type Pool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*Buf
	maxSize int // max buffers per bucket
}

type poolKey struct {
	width  int
	height int
}

// NewPool creates a pool retaining at most maxPerBucket buffers of each
// size. Zero or less means unlimited.
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[poolKey][]*Buf),
		maxSize: maxPerBucket,
	}
}

// Get returns a width×height buffer, reusing a pooled one when available.
func (p *Pool) Get(width, height int) (*Buf, error) {
	key := poolKey{width: width, height: height}

	p.mu.Lock()
	if bucket := p.buckets[key]; len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()
		return buf, nil
	}
	p.mu.Unlock()

	return New(width, height)
}

// Put returns buf to the pool. If buf is nil or its bucket is full, the
// buffer is discarded.
func (p *Pool) Put(buf *Buf) {
	if buf == nil {
		return
	}
	key := poolKey{width: buf.width, height: buf.height}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[key] = append(bucket, buf)
}

// Len returns the number of pooled width×height buffers.
func (p *Pool) Len(width, height int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets[poolKey{width: width, height: height}])
}

// Clear zeroes every pixel of b.
func (b *Buf) Clear() {
	clear(b.pix)
}
