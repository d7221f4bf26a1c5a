package stats

import (
	"strings"

	"oppsight/domain/core"
	"oppsight/domain/detect"
	"oppsight/domain/game"
)

// MarkovDetector mines order-k move-history associations: which next move
// tends to follow each context of k preceding moves.
type MarkovDetector struct {
	cfg detect.Thresholds
}

// NewMarkovDetector creates a variable-order Markov pattern detector.
func NewMarkovDetector(cfg detect.Thresholds) *MarkovDetector {
	return &MarkovDetector{cfg: cfg}
}

// contextStats accumulates next-move counts for one context.
type contextStats struct {
	context []game.Move
	next    map[game.Move]int
	total   int
}

// Analyze mines the opponent move sequence at order k and returns the single
// strongest eligible context as a raw signal, or ok=false when nothing
// clears the per-order ratio floor. A context is eligible only when its
// occurrence count meets the minimum support; rare contexts produce high
// ratios by chance and are never reported. The floor rises with the order
// because higher-order contexts partition the data into combinatorially
// more buckets.
func (d *MarkovDetector) Analyze(moves []game.Move, order int) (detect.Signal, bool, error) {
	minTurns := d.cfg.MarkovMinTurns[order]
	if minTurns == 0 {
		minTurns = (order + 1) * 10
	}
	if len(moves) < minTurns {
		return detect.Signal{}, false, core.NewInsufficientDataError("markov detector", len(moves), minTurns)
	}

	contexts := make(map[string]*contextStats)
	for i := order; i < len(moves); i++ {
		key := contextKey(moves[i-order : i])
		cs, ok := contexts[key]
		if !ok {
			ctx := make([]game.Move, order)
			copy(ctx, moves[i-order:i])
			cs = &contextStats{context: ctx, next: make(map[game.Move]int, 3)}
			contexts[key] = cs
		}
		cs.next[moves[i]]++
		cs.total++
	}

	var best detect.Signal
	var bestRatio float64
	for _, cs := range contexts {
		if cs.total < d.cfg.MarkovMinSupport {
			continue
		}
		predicted, count := dominantNext(cs.next)
		ratio := float64(count) / float64(cs.total)
		if ratio > bestRatio || (ratio == bestRatio && earlierSignal(cs, best)) {
			bestRatio = ratio
			best = detect.Signal{
				Kind:      detect.SignalMarkovMatch,
				Order:     order,
				Context:   cs.context,
				Predicted: predicted,
				RawRate:   ratio,
				Samples:   cs.total,
				Support:   cs.total,
			}
		}
	}

	if bestRatio <= d.cfg.MarkovRatioFloor[order] {
		return detect.Signal{}, false, nil
	}
	return best, true, nil
}

// dominantNext picks the most frequent next move, canonical move order
// breaking ties so results are deterministic.
func dominantNext(next map[game.Move]int) (game.Move, int) {
	best := game.Moves[0]
	for _, m := range game.Moves[1:] {
		if next[m] > next[best] {
			best = m
		}
	}
	return best, next[best]
}

// earlierSignal orders equal-ratio contexts by their key so a map-iteration
// tie never changes the reported context between runs.
func earlierSignal(cs *contextStats, current detect.Signal) bool {
	if current.Kind == "" {
		return true
	}
	return contextKey(cs.context) < contextKey(current.Context)
}

func contextKey(context []game.Move) string {
	parts := make([]string, len(context))
	for i, m := range context {
		parts[i] = string(m)
	}
	return strings.Join(parts, "-")
}
