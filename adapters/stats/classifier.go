package stats

import (
	"math"

	"oppsight/domain/detect"
	"oppsight/domain/game"
)

// Classifier aggregates gated detections and per-window profiles into one
// adaptation-trend label per opponent. The rules form an explicit ordered
// list; the first match wins and every tie-break is deterministic.
type Classifier struct {
	cfg detect.Thresholds
}

// NewClassifier creates an adaptation classifier.
func NewClassifier(cfg detect.Thresholds) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify assigns the adaptation label. Callers enforce the minimum-turn
// requirement and pass only sequences long enough to classify.
func (c *Classifier) Classify(windows []detect.WindowProfile, detections []detect.GatedDetection) detect.AdaptationLabel {
	if c.isReactive(detections) {
		return detect.LabelReactive
	}
	if c.isNashConverged(windows) {
		return detect.LabelNashConvergence
	}
	if c.isCycling(windows) {
		return detect.LabelCycling
	}

	if label, ok := c.entropyTrendLabel(windows); ok {
		return label
	}
	if c.isActivelyAdapting(windows) {
		return detect.LabelActivelyAdapting
	}
	return detect.LabelStable
}

// isReactive fires on any accepted counter or copier detection.
func (c *Classifier) isReactive(detections []detect.GatedDetection) bool {
	for _, d := range detections {
		if !d.Accepted {
			continue
		}
		if d.Signal.Kind == detect.SignalCounter || d.Signal.Kind == detect.SignalCopier {
			return true
		}
	}
	return false
}

// isNashConverged checks whether the most recent window's distribution sits
// within the configured total absolute deviation of uniform.
func (c *Classifier) isNashConverged(windows []detect.WindowProfile) bool {
	if len(windows) == 0 {
		return false
	}
	latest := windows[len(windows)-1].Distribution
	var deviation float64
	for _, m := range game.Moves {
		deviation += math.Abs(latest[m] - 1.0/3.0)
	}
	return deviation < c.cfg.NashDeviationMax
}

// isCycling checks whether per-window dominant moves follow the forward
// rotation (rock -> paper -> scissor -> rock) for at least the configured
// fraction of consecutive window pairs.
func (c *Classifier) isCycling(windows []detect.WindowProfile) bool {
	if len(windows) < 3 {
		return false
	}
	rotations := 0
	pairs := len(windows) - 1
	for i := 1; i < len(windows); i++ {
		if windows[i].Dominant == windows[i-1].Dominant.Counter() {
			rotations++
		}
	}
	return float64(rotations) >= float64(pairs)*c.cfg.CyclingMinFraction
}

// entropyTrendLabel inspects the first-to-last normalized entropy change.
// A rising trend reads as defensive randomization, or as learning when the
// opponent's win rate improved alongside it; a falling trend reads as
// settling into a pattern.
func (c *Classifier) entropyTrendLabel(windows []detect.WindowProfile) (detect.AdaptationLabel, bool) {
	if len(windows) < 3 {
		return "", false
	}
	first := windows[0]
	last := windows[len(windows)-1]
	trend := last.Entropy - first.Entropy

	switch {
	case trend > c.cfg.EntropyTrendDelta:
		if last.WinRate-first.WinRate > c.cfg.WinRateTrendDelta {
			return detect.LabelLearning, true
		}
		return detect.LabelDefensiveRandomization, true
	case trend < -c.cfg.EntropyTrendDelta:
		return detect.LabelSettlingIntoPattern, true
	}
	return "", false
}

// isActivelyAdapting counts consecutive-window distribution shifts whose
// largest per-move change clears the threshold.
func (c *Classifier) isActivelyAdapting(windows []detect.WindowProfile) bool {
	return len(c.Shifts(windows)) >= c.cfg.MinShiftsForAdaptive
}

// Shifts returns every consecutive-window pair whose largest per-move
// probability change exceeds the shift threshold. The move reported for a
// pair is the one with the largest absolute change, canonical move order
// breaking exact ties.
func (c *Classifier) Shifts(windows []detect.WindowProfile) []detect.MoveShift {
	var shifts []detect.MoveShift
	for i := 1; i < len(windows); i++ {
		prev := windows[i-1].Distribution
		curr := windows[i].Distribution

		var maxMove game.Move
		var maxAbs, signedDelta float64
		for _, m := range game.Moves {
			delta := curr[m] - prev[m]
			if math.Abs(delta) > maxAbs {
				maxAbs = math.Abs(delta)
				signedDelta = delta
				maxMove = m
			}
		}

		if maxAbs > c.cfg.ShiftPerMoveDelta {
			shifts = append(shifts, detect.MoveShift{
				FromWindow: i - 1,
				ToWindow:   i,
				Move:       maxMove,
				Delta:      signedDelta,
			})
		}
	}
	return shifts
}
