package detect

import (
	"oppsight/domain/core"
	"oppsight/domain/game"
)

// Distribution maps each move to its observed probability. Three entries,
// summing to 1.0 within floating tolerance; uniform when the source window
// was empty.
type Distribution map[game.Move]float64

// Uniform returns the degenerate-input default distribution.
func Uniform() Distribution {
	return Distribution{game.Rock: 1.0 / 3.0, game.Paper: 1.0 / 3.0, game.Scissor: 1.0 / 3.0}
}

// Dominant returns the most probable move, breaking ties in canonical move
// order so results are deterministic.
func (d Distribution) Dominant() game.Move {
	best := game.Moves[0]
	for _, m := range game.Moves[1:] {
		if d[m] > d[best] {
			best = m
		}
	}
	return best
}

// WindowProfile is the distribution/entropy summary for one window.
type WindowProfile struct {
	Start        int          `json:"start"`
	End          int          `json:"end"`
	Distribution Distribution `json:"distribution"`
	Entropy      float64      `json:"entropy"` // normalized to [0,1]
	Dominant     game.Move    `json:"dominant"`
	WinRate      float64      `json:"win_rate"` // opponent's win rate in the window
}

// ReactiveRates are the transition indicator rates for one opponent.
// Post-result rates are undefined until their qualifying-sample minimums
// are met.
type ReactiveRates struct {
	Counter  Rate `json:"counter"`
	Copy     Rate `json:"copy"`
	Opposite Rate `json:"opposite"`

	RepeatAfterLoss Rate `json:"repeat_after_loss"` // opponent perspective
	SwitchAfterLoss Rate `json:"switch_after_loss"`
	RepeatAfterWin  Rate `json:"repeat_after_win"`
	SwitchAfterWin  Rate `json:"switch_after_win"`
}

// MoveShift records the largest per-move probability change between two
// windows.
type MoveShift struct {
	FromWindow int       `json:"from_window"`
	ToWindow   int       `json:"to_window"`
	Move       game.Move `json:"move"`
	Delta      float64   `json:"delta"` // signed change in probability
}

// OpponentReport is the complete engine output for one opponent.
type OpponentReport struct {
	Opponent   core.OpponentID  `json:"opponent_id"`
	TotalTurns int              `json:"total_turns"`
	Windows    []WindowProfile  `json:"windows"`
	Reactive   *ReactiveRates   `json:"reactive,omitempty"` // nil below two turns
	Detections []GatedDetection `json:"detections"`
	Label      AdaptationLabel  `json:"label"`
	Shifts     []MoveShift      `json:"shifts,omitempty"` // consecutive-window shifts over threshold
}

// Accepted filters the gated detections down to those that passed the gate.
func (r *OpponentReport) Accepted() []GatedDetection {
	var out []GatedDetection
	for _, d := range r.Detections {
		if d.Accepted {
			out = append(out, d)
		}
	}
	return out
}

// HasAccepted reports whether any accepted detection of the given kind exists.
func (r *OpponentReport) HasAccepted(kind SignalKind) bool {
	for _, d := range r.Detections {
		if d.Accepted && d.Signal.Kind == kind {
			return true
		}
	}
	return false
}
