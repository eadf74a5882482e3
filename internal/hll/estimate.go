package hll

import "math"

// alpha is the asymptotic bias constant for 64-bit hashes (0.5 / ln 2).
const alpha = 0.721347520444481703680

// thresholds are the HLL++ cut-over points from linear counting to the
// harmonic-mean estimator, indexed by precision-4.
var thresholds = [...]float64{
	10, 20, 40, 80, 220, 400, 900, 1800, 3100,
	6500, 11500, 20000, 50000, 120000, 350000,
}

// estimate computes the cardinality of a single bucket's registers.
func estimate(p uint8, regs []byte) uint64 {
	m := float64(len(regs))
	q := 64 - int(p)

	var histo [66]int
	for _, r := range regs {
		histo[r]++
	}

	zeros := histo[0]
	if zeros == len(regs) {
		return 0
	}

	threshold := thresholds[p-MinPrecision]
	if zeros > 0 {
		lc := linearCounting(m, float64(zeros))
		if lc <= threshold {
			return uint64(math.Round(lc))
		}
	}

	// Ertl, "New cardinality estimation algorithms for HyperLogLog
	// sketches", improved raw estimator.
	z := m * tau((m-float64(histo[q+1]))/m)
	for k := q; k >= 1; k-- {
		z += float64(histo[k])
		z *= 0.5
	}
	z += m * sigma(float64(zeros)/m)

	// Linear counting already exceeded the threshold, so the estimate never
	// drops below it; this keeps estimates monotone across the cut-over.
	return uint64(math.Round(math.Max(alpha*m*m/z, threshold)))
}

func linearCounting(m, zeros float64) float64 {
	return m * math.Log(m/zeros)
}

// sigma adds the contribution of zero registers.
func sigma(x float64) float64 {
	if x == 1 {
		return math.Inf(1)
	}
	y := 1.0
	z := x
	for {
		x *= x
		prev := z
		z += x * y
		y += y
		if prev == z {
			return z
		}
	}
}

// tau corrects for registers that hit the maximum rank.
func tau(x float64) float64 {
	if x == 0 || x == 1 {
		return 0
	}
	y := 1.0
	z := 1 - x
	for {
		x = math.Sqrt(x)
		prev := z
		y *= 0.5
		z -= (1 - x) * (1 - x) * y
		if prev == z {
			return z / 3
		}
	}
}
