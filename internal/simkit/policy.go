package simkit

import (
	"math/rand"

	"oppsight/app"
	"oppsight/domain/detect"
	"oppsight/domain/game"
)

// Policy chooses the observer's next move from the match history so far.
// Policies may keep per-match state and are not safe for concurrent use;
// create one per match.
type Policy interface {
	Name() string
	Next(rng *rand.Rand, history []game.Turn) game.Move
}

// RandomPolicy plays uniformly at random. It is the control arm for every
// exploitation measurement.
type RandomPolicy struct{}

func (RandomPolicy) Name() string { return "random" }

func (RandomPolicy) Next(rng *rand.Rand, history []game.Turn) game.Move {
	return randomMove(rng)
}

// InformedPolicy replays the detection pipeline over the history so far and
// exploits whatever the gate has accepted, falling back to random play while
// nothing is detected. Re-analysis runs every interval turns; a smaller
// interval reacts faster at proportionally higher cost.
type InformedPolicy struct {
	svc      *app.AnalysisService
	interval int

	accepted []detect.GatedDetection
	lastEval int
}

// NewInformedPolicy builds an exploiting policy around an analysis pipeline.
func NewInformedPolicy(svc *app.AnalysisService, interval int) *InformedPolicy {
	if interval < 1 {
		interval = 1
	}
	return &InformedPolicy{svc: svc, interval: interval, lastEval: -1}
}

func (p *InformedPolicy) Name() string { return "informed" }

func (p *InformedPolicy) Next(rng *rand.Rand, history []game.Turn) game.Move {
	if p.lastEval < 0 || len(history)-p.lastEval >= p.interval {
		p.refresh(history)
	}
	if move, ok := p.exploit(history); ok {
		return move
	}
	return randomMove(rng)
}

func (p *InformedPolicy) refresh(history []game.Turn) {
	p.lastEval = len(history)
	p.accepted = nil
	if len(history) == 0 {
		return
	}
	report, err := p.svc.AnalyzeSequence(&game.Sequence{Opponent: "live", Turns: history})
	if err != nil {
		return
	}
	p.accepted = report.Accepted()
}

// exploitOrder ranks detections by how directly they predict the next move.
var exploitOrder = []detect.SignalKind{
	detect.SignalBias,
	detect.SignalMarkovMatch,
	detect.SignalCounter,
	detect.SignalCopier,
	detect.SignalPostResultRepeat,
}

// exploit translates the strongest applicable detection into a concrete
// counter-move for the coming turn.
func (p *InformedPolicy) exploit(history []game.Turn) (game.Move, bool) {
	var last *game.Turn
	if len(history) > 0 {
		last = &history[len(history)-1]
	}

	for _, kind := range exploitOrder {
		for _, d := range p.accepted {
			if d.Signal.Kind != kind {
				continue
			}
			if move, ok := p.exploitOne(d.Signal, last, history); ok {
				return move, true
			}
		}
	}
	return "", false
}

func (p *InformedPolicy) exploitOne(s detect.Signal, last *game.Turn, history []game.Turn) (game.Move, bool) {
	switch s.Kind {
	case detect.SignalBias:
		return s.Move.Counter(), true

	case detect.SignalMarkovMatch:
		// Only applicable when the live history currently ends in the
		// detected context.
		if len(history) < s.Order {
			return "", false
		}
		for i, m := range s.Context {
			if history[len(history)-s.Order+i].OpponentMove != m {
				return "", false
			}
		}
		return s.Predicted.Counter(), true

	case detect.SignalCounter:
		// The opponent counters our previous move, so play the move that
		// beats that counter.
		if last == nil {
			return "", false
		}
		return last.OwnMove.Counter().Counter(), true

	case detect.SignalCopier:
		if last == nil {
			return "", false
		}
		return last.OwnMove.Counter(), true

	case detect.SignalPostResultRepeat:
		// Repeat-after-result is conditioned on the opponent's outcome:
		// our loss was their win.
		if last == nil {
			return "", false
		}
		oppWon := last.Outcome == game.Loss
		oppLost := last.Outcome == game.Win
		if (s.AfterOutcome == game.Win && oppWon) || (s.AfterOutcome == game.Loss && oppLost) {
			return last.OpponentMove.Counter(), true
		}
		return "", false
	}
	return "", false
}
