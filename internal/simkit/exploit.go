package simkit

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"oppsight/app"
	"oppsight/domain/core"
	"oppsight/domain/game"
)

// weightedWin is the scoring weight of a win relative to a tie when
// computing the weighted score. Ties count 1.0, losses 0.
const weightedWin = 1.3

// SurvivalEstimate compares random play against detection-informed play for
// one archetype. Survival is (wins + ties) / turns from the observer's side;
// the weighted score values wins over ties.
type SurvivalEstimate struct {
	Archetype        string  `json:"archetype"`
	Trials           int     `json:"trials"`
	RandomSurvival   float64 `json:"random_survival"`
	InformedSurvival float64 `json:"informed_survival"`
	SurvivalDelta    float64 `json:"survival_delta"`
	RandomWeighted   float64 `json:"random_weighted"`
	InformedWeighted float64 `json:"informed_weighted"`
	WeightedDelta    float64 `json:"weighted_delta"`
}

// matchScore tallies one finished match from the observer's side.
type matchScore struct {
	wins, ties, turns int
}

func scoreMatch(seq *game.Sequence) matchScore {
	sc := matchScore{turns: seq.Len()}
	for _, t := range seq.Turns {
		switch t.Outcome {
		case game.Win:
			sc.wins++
		case game.Tie:
			sc.ties++
		}
	}
	return sc
}

func (s matchScore) survival() float64 {
	if s.turns == 0 {
		return 0
	}
	return float64(s.wins+s.ties) / float64(s.turns)
}

func (s matchScore) weighted() float64 {
	if s.turns == 0 {
		return 0
	}
	return (weightedWin*float64(s.wins) + float64(s.ties)) / (weightedWin * float64(s.turns))
}

// MeasureExploitation plays every roster archetype against both policies and
// reports the per-archetype survival gain. Each trial pair shares a seed
// stream layout so the comparison is stable across runs.
func (e *Evaluator) MeasureExploitation(ctx context.Context) ([]SurvivalEstimate, error) {
	type agg struct {
		randomSurvival, informedSurvival float64
		randomWeighted, informedWeighted float64
	}
	sums := make([]agg, len(e.archetypes))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for ai, arch := range e.archetypes {
		ai, arch := ai, arch
		for trial := 0; trial < e.cfg.Trials; trial++ {
			trial := trial
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				model := arch.Model
				model.Noise += e.cfg.Noise
				opponent := core.OpponentID(fmt.Sprintf("sim-%s-%d", arch.Name, trial))

				randomRng := rand.New(rand.NewSource(e.trialSeed(ai, trial)))
				randomSeq := PlayMatch(randomRng, opponent, model, RandomPolicy{}, e.cfg.TurnsPerTrial)
				randomScore := scoreMatch(randomSeq)

				informedRng := rand.New(rand.NewSource(e.trialSeed(ai, trial) + 7_919))
				informed := NewInformedPolicy(
					app.NewAnalysisService(e.cfg.Thresholds, e.cfg.Mode),
					e.cfg.PolicyInterval,
				)
				informedSeq := PlayMatch(informedRng, opponent, model, informed, e.cfg.TurnsPerTrial)
				informedScore := scoreMatch(informedSeq)

				mu.Lock()
				sums[ai].randomSurvival += randomScore.survival()
				sums[ai].informedSurvival += informedScore.survival()
				sums[ai].randomWeighted += randomScore.weighted()
				sums[ai].informedWeighted += informedScore.weighted()
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]SurvivalEstimate, 0, len(e.archetypes))
	n := float64(e.cfg.Trials)
	for ai, arch := range e.archetypes {
		est := SurvivalEstimate{
			Archetype:        arch.Name,
			Trials:           e.cfg.Trials,
			RandomSurvival:   sums[ai].randomSurvival / n,
			InformedSurvival: sums[ai].informedSurvival / n,
			RandomWeighted:   sums[ai].randomWeighted / n,
			InformedWeighted: sums[ai].informedWeighted / n,
		}
		est.SurvivalDelta = est.InformedSurvival - est.RandomSurvival
		est.WeightedDelta = est.InformedWeighted - est.RandomWeighted
		out = append(out, est)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Archetype < out[j].Archetype })
	return out, nil
}
