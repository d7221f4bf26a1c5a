// Package stats implements the raw analyzers and the significance gate of
// the opponent pattern-detection pipeline. Analyzers are pure: they read a
// sequence (or a move list) and emit distributions, rates, and raw signals.
// Nothing in this package carries a confidence judgment; that is the gate's
// job alone.
package stats

import (
	"math"

	"oppsight/domain/detect"
	"oppsight/domain/game"
)

// maxEntropyBits is the Shannon entropy of the uniform three-move
// distribution. All entropies in this repository are normalized by it, so
// every reported entropy lives in [0,1].
var maxEntropyBits = math.Log2(3)

// DistributionOf turns a move list into a probability distribution.
// An empty list yields the uniform distribution rather than failing; a
// degenerate input is handled, not an error.
func DistributionOf(moves []game.Move) detect.Distribution {
	if len(moves) == 0 {
		return detect.Uniform()
	}
	counts := CountMoves(moves)
	dist := detect.Distribution{}
	total := float64(len(moves))
	for _, m := range game.Moves {
		dist[m] = float64(counts[m]) / total
	}
	return dist
}

// CountMoves tallies the move list into per-move counts.
func CountMoves(moves []game.Move) map[game.Move]int {
	counts := make(map[game.Move]int, 3)
	for _, m := range moves {
		counts[m]++
	}
	return counts
}

// NormalizedEntropy computes Shannon entropy of the distribution divided by
// log2(3). Uniform play scores 1.0; a single-move distribution scores 0.
func NormalizedEntropy(dist detect.Distribution) float64 {
	var entropy float64
	for _, m := range game.Moves {
		p := dist[m]
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}
	return entropy / maxEntropyBits
}

// BiasSignal builds the raw bias signal for a move list: the dominant move
// and its observed share. Returns ok=false below minSamples so callers never
// gate a signal the detector had no business emitting.
func BiasSignal(moves []game.Move, minSamples int) (detect.Signal, bool) {
	if len(moves) < minSamples {
		return detect.Signal{}, false
	}
	counts := CountMoves(moves)
	dist := DistributionOf(moves)
	dominant := dist.Dominant()
	return detect.Signal{
		Kind:    detect.SignalBias,
		Move:    dominant,
		RawRate: dist[dominant],
		Samples: len(moves),
		Counts:  counts,
	}, true
}
