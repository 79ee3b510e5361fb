// Package screen implements the Screening Core of spec.md §4.4: JD
// context assembly with a prompt-injection guard, the dynamic top/bottom
// split, full LLM screening and light keyword screening, anonymization,
// and NDJSON streaming of both.
package screen

import "math"

// DynamicSplit implements the 1-D 2-means split algorithm of spec.md §4.4.
// scores must already be sorted descending. It always returns an integer
// in [min(minTopCount, len(scores)), len(scores)].
func DynamicSplit(scores []float64, minTopCount int) int {
	n := len(scores)
	if n == 0 {
		return 0
	}
	if n < minTopCount {
		return n
	}

	cHi, cLo := scores[0], scores[n-1]
	if cHi-cLo < 0.05 {
		if cHi > 0.7 {
			return n
		}
		return minTopCount
	}

	split := n
	for i := 0; i < 5; i++ {
		firstLow := -1
		for idx, s := range scores {
			if math.Abs(s-cLo) < math.Abs(s-cHi) {
				firstLow = idx
				break
			}
		}
		if firstLow == -1 {
			split = n
		} else {
			split = firstLow
		}

		newHi := meanOf(scores[:split])
		newLo := meanOf(scores[split:])
		converged := math.Abs(newHi-cHi) < 0.001 && math.Abs(newLo-cLo) < 0.001
		cHi, cLo = newHi, newLo
		if converged {
			break
		}
	}

	if split < minTopCount {
		split = minTopCount
	}
	return split
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
