package simkit

import (
	"context"
	"math/rand"
	"testing"

	"oppsight/app"
	"oppsight/domain/detect"
	"oppsight/domain/game"
)

func testService() *app.AnalysisService {
	return app.NewAnalysisService(detect.DefaultThresholds(), detect.GateSignificance)
}

func TestInformedPolicyCountersDetectedBias(t *testing.T) {
	history := make([]game.Turn, 20)
	for i := range history {
		history[i] = game.Turn{
			Index:        i,
			OwnMove:      game.Paper,
			OpponentMove: game.Rock,
			Outcome:      game.Win,
		}
	}

	policy := NewInformedPolicy(testService(), 5)
	rng := rand.New(rand.NewSource(1))
	if move := policy.Next(rng, history); move != game.Paper {
		t.Errorf("against an all-rock opponent the policy played %s, want paper", move)
	}
}

func TestInformedPolicyFallsBackToRandomEarly(t *testing.T) {
	// With no history there is nothing to exploit; the move must still be
	// valid.
	policy := NewInformedPolicy(testService(), 5)
	rng := rand.New(rand.NewSource(2))
	if move := policy.Next(rng, nil); !move.Valid() {
		t.Errorf("policy returned invalid move %q", move)
	}
}

func TestInformedPolicyBeatsFixedOpponent(t *testing.T) {
	roster := []Archetype{{Name: "pure_rock", Model: OpponentModel{Kind: ModelFixed, Pattern: game.Rock}}}
	cfg := testEvalConfig()
	cfg.Trials = 30
	cfg.TurnsPerTrial = 40

	estimates, err := NewEvaluatorFor(cfg, roster).MeasureExploitation(context.Background())
	if err != nil {
		t.Fatalf("MeasureExploitation: %v", err)
	}
	if len(estimates) != 1 {
		t.Fatalf("got %d estimates, want 1", len(estimates))
	}

	est := estimates[0]
	if est.SurvivalDelta <= 0.1 {
		t.Errorf("informed play gained only %v survival against a fixed opponent", est.SurvivalDelta)
	}
	if est.WeightedDelta <= 0 {
		t.Errorf("weighted delta = %v, want positive", est.WeightedDelta)
	}
}

func TestInformedPolicyHoldsUpAgainstRandom(t *testing.T) {
	// Against a truly random opponent there is nothing to exploit; informed
	// play should stay near the random baseline rather than collapse.
	roster := []Archetype{{Name: "random", Model: OpponentModel{Kind: ModelRandom}}}
	cfg := testEvalConfig()
	cfg.Trials = 60
	cfg.TurnsPerTrial = 40

	estimates, err := NewEvaluatorFor(cfg, roster).MeasureExploitation(context.Background())
	if err != nil {
		t.Fatalf("MeasureExploitation: %v", err)
	}
	est := estimates[0]
	if est.SurvivalDelta < -0.1 || est.SurvivalDelta > 0.1 {
		t.Errorf("survival delta against random = %v, want near zero", est.SurvivalDelta)
	}
}
