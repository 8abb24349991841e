package pools

import (
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// Buffer pool size tiers; Get picks the smallest tier that comfortably
// fits estimatedSize.
const (
	SmallBufferSize  = 2 * 1024  // 2KB for simple responses
	MediumBufferSize = 8 * 1024  // 8KB for typical JSON
	LargeBufferSize  = 32 * 1024 // 32KB for complex responses
)

// PooledBuffer wraps a bytebufferpool.ByteBuffer with double-release
// detection: Put-ing the same PooledBuffer twice is a caller bug the
// pool can at least refuse rather than silently corrupting another
// borrower's buffer.
type PooledBuffer struct {
	buf      *bytebufferpool.ByteBuffer
	released atomic.Bool
}

// Bytes returns the buffer's current contents.
func (p *PooledBuffer) Bytes() []byte { return p.buf.B }

// Write appends data to the buffer.
func (p *PooledBuffer) Write(data []byte) {
	p.buf.Write(data)
}

// Reset clears the buffer's content without releasing it.
func (p *PooledBuffer) Reset() {
	p.buf.Reset()
}

// BufferPool manages response buffers across three size tiers, each
// backed by its own bytebufferpool.Pool, plus a peak-usage high-water
// mark and double-release detection across all tiers.
type BufferPool struct {
	small  bytebufferpool.Pool
	medium bytebufferpool.Pool
	large  bytebufferpool.Pool

	smallHits  atomic.Uint64
	mediumHits atomic.Uint64
	largeHits  atomic.Uint64
	totalGets  atomic.Uint64

	inUse     atomic.Int64
	peakInUse atomic.Int64

	doubleReleases atomic.Uint64
}

// NewBufferPool returns an empty BufferPool.
func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

// Get acquires a buffer from the tier that fits estimatedSize, updating
// the in-use and peak-usage counters.
func (bp *BufferPool) Get(estimatedSize int) *PooledBuffer {
	bp.totalGets.Add(1)

	var buf *bytebufferpool.ByteBuffer
	switch {
	case estimatedSize <= SmallBufferSize:
		bp.smallHits.Add(1)
		buf = bp.small.Get()
	case estimatedSize <= MediumBufferSize:
		bp.mediumHits.Add(1)
		buf = bp.medium.Get()
	default:
		bp.largeHits.Add(1)
		buf = bp.large.Get()
	}

	inUse := bp.inUse.Add(1)
	for {
		peak := bp.peakInUse.Load()
		if inUse <= peak || bp.peakInUse.CompareAndSwap(peak, inUse) {
			break
		}
	}

	return &PooledBuffer{buf: buf}
}

// Put returns p to the tier matching its capacity. Calling Put twice on
// the same PooledBuffer is detected and refused rather than corrupting
// whichever borrower receives it next from the pool.
func (bp *BufferPool) Put(p *PooledBuffer) {
	if p == nil {
		return
	}
	if !p.released.CompareAndSwap(false, true) {
		bp.doubleReleases.Add(1)
		return
	}

	bp.inUse.Add(-1)

	switch c := cap(p.buf.B); {
	case c <= SmallBufferSize:
		bp.small.Put(p.buf)
	case c <= MediumBufferSize:
		bp.medium.Put(p.buf)
	case c <= LargeBufferSize:
		bp.large.Put(p.buf)
		// Oversized buffers are not pooled; let GC collect them.
	}
}

// Stats returns buffer pool statistics.
func (bp *BufferPool) Stats() BufferStats {
	total := bp.totalGets.Load()
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(bp.smallHits.Load()+bp.mediumHits.Load()+bp.largeHits.Load()) / float64(total)
	}
	return BufferStats{
		SmallHits:      bp.smallHits.Load(),
		MediumHits:     bp.mediumHits.Load(),
		LargeHits:      bp.largeHits.Load(),
		TotalGets:      total,
		HitRate:        hitRate,
		PeakInUse:      bp.peakInUse.Load(),
		DoubleReleases: bp.doubleReleases.Load(),
	}
}

// BufferStats contains buffer pool statistics.
type BufferStats struct {
	SmallHits      uint64
	MediumHits     uint64
	LargeHits      uint64
	TotalGets      uint64
	HitRate        float64
	PeakInUse      int64
	DoubleReleases uint64
}

var globalBufferPool = NewBufferPool()

// AcquireBuffer gets a buffer from the global pool.
func AcquireBuffer(estimatedSize int) *PooledBuffer {
	return globalBufferPool.Get(estimatedSize)
}

// ReleaseBuffer returns a buffer to the global pool.
func ReleaseBuffer(buf *PooledBuffer) {
	globalBufferPool.Put(buf)
}

// GetBufferStats returns statistics for the global buffer pool.
func GetBufferStats() BufferStats {
	return globalBufferPool.Stats()
}
