package pools

import "testing"

func TestBufferPoolGetPut(t *testing.T) {
	bp := NewBufferPool()
	buf := bp.Get(100)
	buf.Write([]byte("hello"))
	if string(buf.Bytes()) != "hello" {
		t.Errorf("Bytes() = %q, want hello", buf.Bytes())
	}
	bp.Put(buf)

	stats := bp.Stats()
	if stats.TotalGets != 1 {
		t.Errorf("TotalGets = %d, want 1", stats.TotalGets)
	}
	if stats.PeakInUse != 1 {
		t.Errorf("PeakInUse = %d, want 1", stats.PeakInUse)
	}
}

func TestBufferPoolDoubleReleaseDetected(t *testing.T) {
	bp := NewBufferPool()
	buf := bp.Get(100)
	bp.Put(buf)
	bp.Put(buf) // double release

	if bp.Stats().DoubleReleases != 1 {
		t.Errorf("DoubleReleases = %d, want 1", bp.Stats().DoubleReleases)
	}
}

func TestBufferPoolTierSelection(t *testing.T) {
	bp := NewBufferPool()
	bp.Put(bp.Get(1))
	bp.Put(bp.Get(SmallBufferSize + 1))
	bp.Put(bp.Get(MediumBufferSize + 1))

	stats := bp.Stats()
	if stats.SmallHits != 1 || stats.MediumHits != 1 || stats.LargeHits != 1 {
		t.Errorf("tier hits = %+v, want one each", stats)
	}
}

func TestBufferPoolPeakInUseTracksConcurrentBorrows(t *testing.T) {
	bp := NewBufferPool()
	a := bp.Get(10)
	b := bp.Get(10)
	if bp.Stats().PeakInUse != 2 {
		t.Errorf("PeakInUse = %d, want 2", bp.Stats().PeakInUse)
	}
	bp.Put(a)
	bp.Put(b)
	if bp.Stats().PeakInUse != 2 {
		t.Errorf("PeakInUse after release = %d, want still 2 (high-water mark)", bp.Stats().PeakInUse)
	}
}
