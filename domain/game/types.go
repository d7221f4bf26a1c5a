package game

import (
	"fmt"

	"oppsight/domain/core"
)

// Move is one of the three cyclically-dominant choices in the underlying game.
type Move string

const (
	Rock    Move = "rock"
	Paper   Move = "paper"
	Scissor Move = "scissor"
)

// Moves lists the move domain in canonical order. Iteration over moves must
// use this slice so tie-breaking stays deterministic.
var Moves = []Move{Rock, Paper, Scissor}

// counterOf maps a move to the move that beats it (the forward rotation).
var counterOf = map[Move]Move{
	Rock:    Paper,
	Paper:   Scissor,
	Scissor: Rock,
}

// beatenBy maps a move to the move it beats (the reverse rotation).
var beatenBy = map[Move]Move{
	Rock:    Scissor,
	Paper:   Rock,
	Scissor: Paper,
}

// Counter returns the move that beats m.
func (m Move) Counter() Move { return counterOf[m] }

// Beats returns the move that m beats.
func (m Move) Beats() Move { return beatenBy[m] }

// Valid reports whether m is inside the three-valued move domain.
func (m Move) Valid() bool {
	return m == Rock || m == Paper || m == Scissor
}

// ParseMove converts a raw token into a Move, failing fast on anything
// outside the domain.
func ParseMove(token string) (Move, error) {
	m := Move(token)
	if !m.Valid() {
		return "", core.NewInvalidMoveError(token)
	}
	return m, nil
}

// Outcome is the result of one turn relative to a fixed observer (the
// "own move" side). Historical data may carry either observer convention,
// so stored outcomes are never recomputed from the moves.
type Outcome string

const (
	Win  Outcome = "win"
	Loss Outcome = "loss"
	Tie  Outcome = "tie"
)

// Valid reports whether o is inside the outcome domain.
func (o Outcome) Valid() bool {
	return o == Win || o == Loss || o == Tie
}

// Judge derives the observer-relative outcome from a pair of moves. Only
// callers that own both moves (the simulator) may use this; the analysis
// pipeline trusts the outcome supplied with each turn.
func Judge(own, opponent Move) Outcome {
	if own == opponent {
		return Tie
	}
	if own == opponent.Counter() {
		return Win
	}
	return Loss
}

// Turn is one immutable record in an opponent's history.
type Turn struct {
	Index        int     `json:"index" db:"turn"`
	OwnMove      Move    `json:"own_move" db:"player_move"`
	OpponentMove Move    `json:"opponent_move" db:"enemy_move"`
	Outcome      Outcome `json:"outcome" db:"result"`
}

// Sequence is the ordered battle history for one opponent identity.
// Append-only once constructed; the engine treats it as read-only.
type Sequence struct {
	Opponent core.OpponentID `json:"opponent_id"`
	Turns    []Turn          `json:"turns"`
}

// NewSequence validates turn ordering and move/outcome domains.
func NewSequence(opponent core.OpponentID, turns []Turn) (*Sequence, error) {
	for i, t := range turns {
		if !t.OwnMove.Valid() {
			return nil, fmt.Errorf("turn %d own move: %w", t.Index, core.NewInvalidMoveError(string(t.OwnMove)))
		}
		if !t.OpponentMove.Valid() {
			return nil, fmt.Errorf("turn %d opponent move: %w", t.Index, core.NewInvalidMoveError(string(t.OpponentMove)))
		}
		if !t.Outcome.Valid() {
			return nil, fmt.Errorf("turn %d: %w: %q", t.Index, core.ErrInvalidOutcome, t.Outcome)
		}
		if i > 0 && t.Index <= turns[i-1].Index {
			return nil, fmt.Errorf("%w: turn %d follows turn %d", core.ErrTurnOrder, t.Index, turns[i-1].Index)
		}
	}
	return &Sequence{Opponent: opponent, Turns: turns}, nil
}

// Len returns the number of recorded turns.
func (s *Sequence) Len() int { return len(s.Turns) }

// OpponentMoves extracts the opponent's move column in order.
func (s *Sequence) OpponentMoves() []Move {
	moves := make([]Move, len(s.Turns))
	for i, t := range s.Turns {
		moves[i] = t.OpponentMove
	}
	return moves
}
