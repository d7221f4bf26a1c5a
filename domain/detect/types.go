package detect

import (
	"fmt"

	"oppsight/domain/game"
)

// SignalKind tags the detector that produced a raw signal.
type SignalKind string

const (
	SignalBias             SignalKind = "bias"
	SignalCounter          SignalKind = "counter"
	SignalCopier           SignalKind = "copier"
	SignalPostResultRepeat SignalKind = "post_result_repeat"
	SignalMarkovMatch      SignalKind = "markov_match"
)

// Signal is a raw detection produced by one of the analyzers. It carries
// observed rates and sample counts only; confidence judgments are added by
// the significance gate.
type Signal struct {
	Kind    SignalKind `json:"kind"`
	RawRate float64    `json:"raw_rate"` // observed rate behind the signal
	Samples int        `json:"samples"`  // denominator of RawRate

	// Bias fields
	Move   game.Move         `json:"move,omitempty"`   // dominant move for bias signals
	Counts map[game.Move]int `json:"counts,omitempty"` // full 3-way counts behind a bias signal

	// PostResultRepeat fields
	AfterOutcome game.Outcome `json:"after_outcome,omitempty"` // opponent-perspective outcome conditioned on

	// MarkovMatch fields
	Order     int         `json:"order,omitempty"`     // context length k
	Context   []game.Move `json:"context,omitempty"`   // preceding k moves
	Predicted game.Move   `json:"predicted,omitempty"` // most likely next move
	Support   int         `json:"support,omitempty"`   // total occurrences of the context
}

func (s Signal) String() string {
	switch s.Kind {
	case SignalBias:
		return fmt.Sprintf("bias(%s %.1f%%, n=%d)", s.Move, s.RawRate*100, s.Samples)
	case SignalMarkovMatch:
		return fmt.Sprintf("markov%d(%v -> %s %.1f%%, support=%d)", s.Order, s.Context, s.Predicted, s.RawRate*100, s.Support)
	case SignalPostResultRepeat:
		return fmt.Sprintf("repeat_after_%s(%.1f%%, n=%d)", s.AfterOutcome, s.RawRate*100, s.Samples)
	default:
		return fmt.Sprintf("%s(%.1f%%, n=%d)", s.Kind, s.RawRate*100, s.Samples)
	}
}

// GatedDetection is a raw signal after the significance gate has ruled on it.
// Only accepted detections may influence classification or play.
type GatedDetection struct {
	Signal     Signal  `json:"signal"`
	PValue     float64 `json:"p_value"`
	Accepted   bool    `json:"accepted"`
	Confidence float64 `json:"confidence"` // meaningful only when accepted
}

// AdaptationLabel is the single trend classification assigned per opponent.
// Labels are mutually exclusive; the classifier picks the first matching rule
// in priority order.
type AdaptationLabel string

const (
	LabelInsufficientData        AdaptationLabel = "insufficient_data"
	LabelStable                  AdaptationLabel = "stable"
	LabelNashConvergence         AdaptationLabel = "nash_convergence"
	LabelCycling                 AdaptationLabel = "cycling"
	LabelReactive                AdaptationLabel = "reactive"
	LabelDefensiveRandomization  AdaptationLabel = "defensive_randomization"
	LabelLearning                AdaptationLabel = "learning"
	LabelActivelyAdapting        AdaptationLabel = "actively_adapting"
	LabelSettlingIntoPattern     AdaptationLabel = "settling_into_pattern"
)

// Rate is an indicator rate with an explicit defined flag. Rates whose
// denominator falls below the configured minimum are reported undefined,
// never as zero.
type Rate struct {
	Value   float64 `json:"value"`
	Samples int     `json:"samples"`
	Defined bool    `json:"defined"`
}

// DefinedRate builds a defined rate from a count and denominator.
func DefinedRate(count, total int) Rate {
	return Rate{Value: float64(count) / float64(total), Samples: total, Defined: true}
}

// UndefinedRate marks a rate that lacked the minimum qualifying samples.
func UndefinedRate(samples int) Rate {
	return Rate{Samples: samples, Defined: false}
}
