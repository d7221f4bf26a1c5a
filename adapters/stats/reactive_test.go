package stats

import (
	"math"
	"testing"

	"oppsight/domain/core"
	"oppsight/domain/detect"
	"oppsight/domain/game"
)

// buildSequence pairs the move columns into judged turns.
func buildSequence(t *testing.T, own, opp []game.Move) *game.Sequence {
	t.Helper()
	if len(own) != len(opp) {
		t.Fatalf("move columns differ in length: %d vs %d", len(own), len(opp))
	}
	turns := make([]game.Turn, len(own))
	for i := range own {
		turns[i] = game.Turn{
			Index:        i,
			OwnMove:      own[i],
			OpponentMove: opp[i],
			Outcome:      game.Judge(own[i], opp[i]),
		}
	}
	seq, err := game.NewSequence("opp-1", turns)
	if err != nil {
		t.Fatalf("NewSequence: %v", err)
	}
	return seq
}

func TestReactivePureCounter(t *testing.T) {
	// The opponent always counters the observer's previous move.
	own := []game.Move{
		game.Rock, game.Paper, game.Scissor, game.Rock, game.Paper,
		game.Scissor, game.Rock, game.Paper, game.Scissor, game.Rock, game.Paper,
	}
	opp := make([]game.Move, len(own))
	opp[0] = game.Rock
	for i := 1; i < len(own); i++ {
		opp[i] = own[i-1].Counter()
	}

	rates, err := NewReactiveAnalyzer(detect.DefaultThresholds()).Analyze(buildSequence(t, own, opp))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rates.Counter.Value != 1.0 || rates.Counter.Samples != len(own)-1 {
		t.Errorf("counter rate = %+v, want 1.0 over %d", rates.Counter, len(own)-1)
	}
	if rates.Copy.Value != 0 || rates.Opposite.Value != 0 {
		t.Errorf("copy = %v, opposite = %v, want both 0", rates.Copy.Value, rates.Opposite.Value)
	}
}

func TestReactiveCategoriesPartitionTransitions(t *testing.T) {
	own := []game.Move{game.Rock, game.Rock, game.Rock, game.Rock, game.Rock, game.Rock, game.Rock}
	opp := []game.Move{game.Rock, game.Paper, game.Rock, game.Scissor, game.Paper, game.Rock, game.Scissor}

	rates, err := NewReactiveAnalyzer(detect.DefaultThresholds()).Analyze(buildSequence(t, own, opp))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	sum := rates.Counter.Value + rates.Copy.Value + rates.Opposite.Value
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("disjoint categories over a full domain should sum to 1, got %v", sum)
	}
}

func TestReactivePostResultRepeat(t *testing.T) {
	// Observer wins every turn, so every prior is an opponent loss; the
	// opponent repeats rock throughout.
	n := 8
	own := make([]game.Move, n)
	opp := make([]game.Move, n)
	for i := range own {
		own[i] = game.Paper
		opp[i] = game.Rock
	}

	rates, err := NewReactiveAnalyzer(detect.DefaultThresholds()).Analyze(buildSequence(t, own, opp))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !rates.RepeatAfterLoss.Defined {
		t.Fatal("repeat-after-loss should be defined with 7 qualifying priors")
	}
	if rates.RepeatAfterLoss.Value != 1.0 {
		t.Errorf("repeat-after-loss = %v, want 1.0", rates.RepeatAfterLoss.Value)
	}
	if rates.RepeatAfterWin.Defined {
		t.Error("repeat-after-win should be undefined with zero opponent wins")
	}
	if rates.SwitchAfterLoss.Value != 0 {
		t.Errorf("switch-after-loss = %v, want 0", rates.SwitchAfterLoss.Value)
	}
}

func TestReactiveUndefinedBelowMinimumPriors(t *testing.T) {
	// Only 4 opponent losses: below the 5-prior minimum, the rate must come
	// back undefined rather than zero.
	own := []game.Move{game.Paper, game.Paper, game.Paper, game.Paper, game.Rock, game.Rock, game.Rock, game.Rock}
	opp := []game.Move{game.Rock, game.Rock, game.Rock, game.Rock, game.Rock, game.Rock, game.Rock, game.Rock}

	rates, err := NewReactiveAnalyzer(detect.DefaultThresholds()).Analyze(buildSequence(t, own, opp))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rates.RepeatAfterLoss.Defined {
		t.Errorf("repeat-after-loss should be undefined with %d priors", rates.RepeatAfterLoss.Samples)
	}
}

func TestReactiveInsufficientData(t *testing.T) {
	seq := buildSequence(t, []game.Move{game.Rock}, []game.Move{game.Paper})
	if _, err := NewReactiveAnalyzer(detect.DefaultThresholds()).Analyze(seq); !core.IsInsufficientData(err) {
		t.Errorf("single-turn analysis error = %v, want insufficient data", err)
	}
}

func TestReactiveSignalsSkipUndefinedRates(t *testing.T) {
	rates := &detect.ReactiveRates{
		Counter:         detect.DefinedRate(5, 10),
		Copy:            detect.DefinedRate(2, 10),
		RepeatAfterLoss: detect.UndefinedRate(3),
		RepeatAfterWin:  detect.DefinedRate(4, 6),
	}
	signals := NewReactiveAnalyzer(detect.DefaultThresholds()).Signals(rates)
	if len(signals) != 3 {
		t.Fatalf("got %d signals, want counter + copier + one post-result", len(signals))
	}
	for _, s := range signals {
		if s.Kind == detect.SignalPostResultRepeat && s.AfterOutcome != game.Win {
			t.Errorf("only the opponent-win repeat should be emitted, got after_%s", s.AfterOutcome)
		}
	}
}
