// Package simkit generates labeled synthetic opponents and measures the
// detection pipeline against them. It depends on the detector, never the
// other way around, so the harness cannot leak assumptions into the engine
// it scores.
package simkit

import (
	"fmt"
	"math/rand"

	"oppsight/domain/core"
	"oppsight/domain/game"
)

// ModelKind tags a synthetic opponent archetype.
type ModelKind string

const (
	ModelFixed        ModelKind = "fixed"
	ModelCounter      ModelKind = "counter"
	ModelCopier       ModelKind = "copier"
	ModelLossRepeater ModelKind = "loss_repeater"
	ModelMarkov       ModelKind = "markov"
	ModelRandom       ModelKind = "random"
)

// OpponentModel describes one synthetic opponent. Only the fields relevant
// to the kind are read. Noise is the probability that a turn's move is
// replaced by a uniformly random one, independent of the model.
type OpponentModel struct {
	Kind    ModelKind `json:"kind"`
	Pattern game.Move `json:"pattern,omitempty"` // fixed move

	// Rate is the follow probability for counter/copier/loss-repeater
	// kinds. When the model does not follow its pattern it plays uniformly
	// over the two non-pattern moves, so the observed pattern rate matches
	// Rate up to sampling error.
	Rate float64 `json:"rate,omitempty"`

	// Markov pattern fields
	Context    []game.Move `json:"context,omitempty"`
	Response   game.Move   `json:"response,omitempty"`
	FollowRate float64     `json:"follow_rate,omitempty"`

	Noise float64 `json:"noise"`
}

// Patterned reports ground truth for the confusion matrix: everything
// except the random archetype carries structure a detector should find.
func (m OpponentModel) Patterned() bool {
	return m.Kind != ModelRandom
}

// Validate checks the model is well-formed before any match is played.
func (m OpponentModel) Validate() error {
	switch m.Kind {
	case ModelFixed:
		if !m.Pattern.Valid() {
			return core.NewInvalidMoveError(string(m.Pattern))
		}
	case ModelCounter, ModelCopier, ModelLossRepeater:
		if m.Rate < 0 || m.Rate > 1 {
			return fmt.Errorf("%s model rate %v outside [0,1]", m.Kind, m.Rate)
		}
	case ModelMarkov:
		if len(m.Context) == 0 || !m.Response.Valid() {
			return fmt.Errorf("markov model needs a context and a valid response")
		}
		for _, mv := range m.Context {
			if !mv.Valid() {
				return core.NewInvalidMoveError(string(mv))
			}
		}
	case ModelRandom:
	default:
		return fmt.Errorf("%w: %q", core.ErrUnknownOpponentModel, m.Kind)
	}
	if m.Noise < 0 || m.Noise > 1 {
		return fmt.Errorf("noise %v outside [0,1]", m.Noise)
	}
	return nil
}

// turnState carries the per-turn context a model may react to.
type turnState struct {
	ourLast     game.Move    // observer's previous move ("" on turn 0)
	oppLast     game.Move    // model's previous move
	lastOutcome game.Outcome // observer-relative outcome of the previous turn
	oppHistory  []game.Move  // model's full move history, oldest first
}

// next picks the model's move for one turn.
func (m OpponentModel) next(rng *rand.Rand, st turnState) game.Move {
	if m.Noise > 0 && rng.Float64() < m.Noise {
		return randomMove(rng)
	}

	switch m.Kind {
	case ModelFixed:
		return m.Pattern

	case ModelCounter:
		if st.ourLast == "" {
			return randomMove(rng)
		}
		target := st.ourLast.Counter()
		if rng.Float64() < m.Rate {
			return target
		}
		return randomMoveExcept(rng, target)

	case ModelCopier:
		if st.ourLast == "" {
			return randomMove(rng)
		}
		if rng.Float64() < m.Rate {
			return st.ourLast
		}
		return randomMoveExcept(rng, st.ourLast)

	case ModelLossRepeater:
		// Repeats after its own loss, i.e. after the observer's win.
		if st.lastOutcome == game.Win && st.oppLast != "" {
			if rng.Float64() < m.Rate {
				return st.oppLast
			}
			return randomMoveExcept(rng, st.oppLast)
		}
		return randomMove(rng)

	case ModelMarkov:
		if matchesContext(st.oppHistory, m.Context) {
			if rng.Float64() < m.FollowRate {
				return m.Response
			}
			return randomMoveExcept(rng, m.Response)
		}
		// Off-context play occasionally extends the longest partial match
		// so the full context actually occurs often enough to mine.
		if next, ok := contextContinuation(st.oppHistory, m.Context); ok && rng.Float64() < 0.3 {
			return next
		}
		return randomMove(rng)

	default:
		return randomMove(rng)
	}
}

// matchesContext reports whether the history's tail equals the context.
func matchesContext(history, context []game.Move) bool {
	if len(context) == 0 || len(history) < len(context) {
		return false
	}
	tail := history[len(history)-len(context):]
	for i := range context {
		if tail[i] != context[i] {
			return false
		}
	}
	return true
}

// contextContinuation finds the longest history suffix matching a proper
// prefix of the context and returns the context move that would extend it.
func contextContinuation(history, context []game.Move) (game.Move, bool) {
	for match := len(context) - 1; match > 0; match-- {
		if len(history) < match {
			continue
		}
		tail := history[len(history)-match:]
		ok := true
		for i := 0; i < match; i++ {
			if tail[i] != context[i] {
				ok = false
				break
			}
		}
		if ok {
			return context[match], true
		}
	}
	if len(context) > 0 {
		return context[0], true
	}
	return "", false
}

func randomMove(rng *rand.Rand) game.Move {
	return game.Moves[rng.Intn(3)]
}

// randomMoveExcept picks uniformly between the two moves other than excluded.
func randomMoveExcept(rng *rand.Rand, excluded game.Move) game.Move {
	for {
		m := game.Moves[rng.Intn(3)]
		if m != excluded {
			return m
		}
	}
}
