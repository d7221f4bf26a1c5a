package simkit

import (
	"math/rand"

	"oppsight/domain/core"
	"oppsight/domain/game"
)

// PlayMatch runs one full match of the given length between a policy (the
// observer side) and a synthetic opponent model. Both sides commit their
// move before the turn is judged.
func PlayMatch(rng *rand.Rand, opponent core.OpponentID, model OpponentModel, policy Policy, turns int) *game.Sequence {
	seq := &game.Sequence{Opponent: opponent, Turns: make([]game.Turn, 0, turns)}
	st := turnState{}
	for i := 0; i < turns; i++ {
		own := policy.Next(rng, seq.Turns)
		opp := model.next(rng, st)
		outcome := game.Judge(own, opp)
		seq.Turns = append(seq.Turns, game.Turn{
			Index:        i,
			OwnMove:      own,
			OpponentMove: opp,
			Outcome:      outcome,
		})
		st.ourLast = own
		st.oppLast = opp
		st.lastOutcome = outcome
		st.oppHistory = append(st.oppHistory, opp)
	}
	return seq
}

// Generate produces a labeled trial sequence with a uniformly random
// observer, the setting every detection metric is calibrated against.
func Generate(rng *rand.Rand, opponent core.OpponentID, model OpponentModel, turns int) *game.Sequence {
	return PlayMatch(rng, opponent, model, RandomPolicy{}, turns)
}
