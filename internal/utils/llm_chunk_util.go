package utils

import (
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultChunkCapacity = 1024

// ChunkStats collects the arrival intervals of the chunks of one upstream response
type ChunkStats struct {
	mu sync.Mutex

	intervals []float32 // milliseconds between consecutive chunks
	bytes     int
	firstTime time.Time
	lastTime  time.Time
	started   time.Time

	closed bool
}

// NewChunkStats starts the clock; the first chunk yields the time to first byte
func NewChunkStats(capacity int) *ChunkStats {
	if capacity <= 0 {
		capacity = defaultChunkCapacity
	}
	return &ChunkStats{
		intervals: make([]float32, 0, capacity),
		started:   time.Now(),
	}
}

// OnChunk records the arrival of a chunk of n bytes
func (cs *ChunkStats) OnChunk(n int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.closed {
		return
	}

	now := time.Now()
	cs.bytes += n
	if cs.lastTime.IsZero() {
		cs.firstTime = now
		cs.lastTime = now
		return
	}

	cs.intervals = append(cs.intervals, float32(now.Sub(cs.lastTime).Milliseconds()))
	cs.lastTime = now
}

// End finishes a response that completed normally
func (cs *ChunkStats) End() *ChunkStatInfo {
	return cs.finalize(false)
}

// Stop finishes a response that ended with an error
func (cs *ChunkStats) Stop() *ChunkStatInfo {
	return cs.finalize(true)
}

// finalize is idempotent; only the first call returns the result
func (cs *ChunkStats) finalize(isError bool) *ChunkStatInfo {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.closed {
		return nil
	}
	cs.closed = true

	info := &ChunkStatInfo{
		Chunks:  0,
		Bytes:   cs.bytes,
		IsError: isError,
	}
	if !cs.firstTime.IsZero() {
		info.Chunks = len(cs.intervals) + 1
		info.FirstChunk = cs.firstTime.Sub(cs.started)
	}
	cs.fillIntervalStats(info)
	cs.intervals = nil
	return info
}

func (cs *ChunkStats) fillIntervalStats(info *ChunkStatInfo) {
	n := len(cs.intervals)
	if n == 0 {
		return
	}

	sorted := make([]float32, n)
	copy(sorted, cs.intervals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum float64
	for _, v := range sorted {
		sum += float64(v)
	}
	mean := sum / float64(n)

	var variance float64
	for _, v := range sorted {
		diff := float64(v) - mean
		variance += diff * diff
	}
	variance /= float64(n)

	info.Mean = float32(mean)
	info.Min = sorted[0]
	info.Max = sorted[n-1]
	info.StdDev = math.Sqrt(variance)
	info.P50 = sorted[n*50/100]
	info.P95 = sorted[n*95/100]
	info.P99 = sorted[n*99/100]
}

// ChunkStatInfo summarizes one response; intervals are in milliseconds
type ChunkStatInfo struct {
	Chunks     int
	Bytes      int
	FirstChunk time.Duration
	Mean       float32
	Min        float32
	Max        float32
	StdDev     float64
	P50        float32
	P95        float32
	P99        float32
	IsError    bool
}

// Fields renders the summary as log fields
func (i *ChunkStatInfo) Fields() []zap.Field {
	if i == nil {
		return nil
	}
	return []zap.Field{
		zap.Int("chunks", i.Chunks),
		zap.Int("bytes", i.Bytes),
		zap.Duration("firstChunk", i.FirstChunk),
		zap.Float32("meanIntervalMs", i.Mean),
		zap.Float32("maxIntervalMs", i.Max),
		zap.Float32("p95IntervalMs", i.P95),
		zap.Bool("isError", i.IsError),
	}
}
