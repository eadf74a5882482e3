package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/cardinal/values"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Longs returns n values holding exactly distinct different integers.
// Every distinct value occurs at least once; the rest are repeats, and the
// order is shuffled.
func (r *RNG) Longs(n, distinct int) []int64 {
	if distinct > n {
		distinct = n
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	pool := make([]int64, distinct)
	seen := make(map[int64]struct{}, distinct)
	for i := range pool {
		for {
			v := r.rand.Int63() - r.rand.Int63()
			if _, dup := seen[v]; !dup {
				seen[v] = struct{}{}
				pool[i] = v
				break
			}
		}
	}

	out := make([]int64, n)
	copy(out, pool)
	for i := distinct; i < n; i++ {
		out[i] = pool[r.rand.Intn(distinct)]
	}
	r.rand.Shuffle(n, func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Strings is Longs for string values with the given prefix.
func (r *RNG) Strings(n, distinct int, prefix string) []string {
	longs := r.Longs(n, distinct)
	out := make([]string, n)
	for i, v := range longs {
		out[i] = fmt.Sprintf("%s%x", prefix, uint64(v))
	}
	return out
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
// s=1.0 gives standard Zipf, s=1.5 gives heavy-tail (80/20 rule).
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	// Compute normalization constant (harmonic number with exponent s)
	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	// Sample from uniform and use inverse transform
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1 // 0-indexed
		}
	}

	return n - 1
}

// ZipfBuckets generates n bucket assignments with Zipfian distribution.
// Returns slice where ~20% of buckets contain ~80% of documents (when s=1.5).
func (r *RNG) ZipfBuckets(n, bucketCount int, s float64) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	buckets := make([]uint64, n)
	for i := range n {
		buckets[i] = uint64(r.zipfLocked(bucketCount, s))
	}

	return buckets
}

// SparsePresence reports per document whether it holds a value.
// missingRate is the probability that a value is missing (0.3 = 30% missing).
func (r *RNG) SparsePresence(n int, missingRate float64) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	present := make([]bool, n)
	for i := range n {
		present[i] = r.rand.Float64() >= missingRate
	}

	return present
}

// SegmentLocalSkewBuckets generates bucket assignments where:
// - Globally uniform distribution (each bucket has ~equal total count)
// - But within each "segment" (chunk of n/numSegments), one bucket dominates
//
// Use this to exercise bucket growth that differs per segment.
func (r *RNG) SegmentLocalSkewBuckets(n, bucketCount, numSegments int, localDominance float64) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	buckets := make([]uint64, n)
	segmentSize := n / numSegments
	if segmentSize < 1 {
		segmentSize = 1
	}

	for i := range n {
		segmentIdx := i / segmentSize
		if segmentIdx >= numSegments {
			segmentIdx = numSegments - 1
		}

		dominantBucket := uint64(segmentIdx % bucketCount)

		if bucketCount == 1 || r.rand.Float64() < localDominance {
			buckets[i] = dominantBucket
		} else {
			other := uint64(r.rand.Intn(bucketCount - 1))
			if other >= dominantBucket {
				other++
			}
			buckets[i] = other
		}
	}

	return buckets
}

// StringSegments splits vals into numSegments segments of consecutive
// documents, one value per document in field.
func StringSegments(field string, vals []string, numSegments int) ([]*values.MemorySegment, error) {
	return buildSegments(len(vals), numSegments, func(b *values.SegmentBuilder, doc, i int) {
		b.AddStrings(doc, field, vals[i])
	})
}

// LongSegments is StringSegments for integer values.
func LongSegments(field string, vals []int64, numSegments int) ([]*values.MemorySegment, error) {
	return buildSegments(len(vals), numSegments, func(b *values.SegmentBuilder, doc, i int) {
		b.AddLongs(doc, field, vals[i])
	})
}

func buildSegments(n, numSegments int, add func(b *values.SegmentBuilder, doc, i int)) ([]*values.MemorySegment, error) {
	if numSegments < 1 {
		numSegments = 1
	}
	size := (n + numSegments - 1) / numSegments

	segs := make([]*values.MemorySegment, 0, numSegments)
	for ord := 0; ord < numSegments; ord++ {
		b := values.NewSegmentBuilder(ord)
		lo := min(ord*size, n)
		hi := min(lo+size, n)
		for i := lo; i < hi; i++ {
			add(b, i-lo, i)
		}
		seg, err := b.Build()
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// RelativeError returns |got-want|/want, or |got| when want is 0.
func RelativeError(got, want uint64) float64 {
	diff := math.Abs(float64(got) - float64(want))
	if want == 0 {
		return diff
	}
	return diff / float64(want)
}
