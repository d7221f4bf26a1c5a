package stats

import (
	"reflect"
	"testing"

	"oppsight/domain/detect"
	"oppsight/domain/game"
)

func defaultGate() *Gate {
	return NewGate(detect.DefaultThresholds(), detect.GateSignificance)
}

func TestGateBiasAcceptsShortPurePattern(t *testing.T) {
	// Five identical moves: chi-square 10.0, p = e^-5 ~ 0.0067, under the
	// battery-corrected level 0.05/7, share 1.0.
	signal, ok := BiasSignal(repeatMoves(game.Scissor, 5), 5)
	if !ok {
		t.Fatal("expected a bias signal")
	}
	d := defaultGate().gate(signal)
	if !d.Accepted {
		t.Fatalf("five identical moves must be accepted, p=%v", d.PValue)
	}
	if d.Confidence != 0.9 {
		t.Errorf("confidence = %v, want capped at 0.9", d.Confidence)
	}
	if d.PValue >= 0.05 {
		t.Errorf("p-value = %v, want < 0.05", d.PValue)
	}
}

func TestGateBiasRejectsBalancedCounts(t *testing.T) {
	var moves []game.Move
	moves = append(moves, repeatMoves(game.Rock, 7)...)
	moves = append(moves, repeatMoves(game.Paper, 7)...)
	moves = append(moves, repeatMoves(game.Scissor, 6)...)

	signal, ok := BiasSignal(moves, 5)
	if !ok {
		t.Fatal("expected a bias signal")
	}
	d := defaultGate().gate(signal)
	if d.Accepted {
		t.Errorf("near-uniform counts must be rejected, p=%v", d.PValue)
	}
}

func TestGateBiasRejectsSignificantButWeakEffect(t *testing.T) {
	// 44% dominant share over 200 turns is highly significant but sits
	// under the effect floor, so it must still be rejected.
	var moves []game.Move
	moves = append(moves, repeatMoves(game.Rock, 88)...)
	moves = append(moves, repeatMoves(game.Paper, 56)...)
	moves = append(moves, repeatMoves(game.Scissor, 56)...)

	signal, ok := BiasSignal(moves, 5)
	if !ok {
		t.Fatal("expected a bias signal")
	}
	d := defaultGate().gate(signal)
	if d.PValue >= 0.05 {
		t.Fatalf("setup broken: expected a significant skew, p=%v", d.PValue)
	}
	if d.Accepted {
		t.Error("significant but weak bias must be rejected by the effect floor")
	}
}

func TestGateCounterAcceptsModerateRate(t *testing.T) {
	signal := detect.Signal{Kind: detect.SignalCounter, RawRate: 90.0 / 200.0, Samples: 200}
	d := defaultGate().gate(signal)
	if !d.Accepted {
		t.Fatalf("45%% counter rate over 200 transitions must be accepted, p=%v", d.PValue)
	}
	if d.Confidence != detect.DefaultThresholds().BinomialConfidence {
		t.Errorf("confidence = %v, want the fixed binomial confidence", d.Confidence)
	}
}

func TestGateCounterRejectsChanceRate(t *testing.T) {
	signal := detect.Signal{Kind: detect.SignalCounter, RawRate: 66.0 / 200.0, Samples: 200}
	d := defaultGate().gate(signal)
	if d.Accepted {
		t.Errorf("a chance-level counter rate must be rejected, p=%v", d.PValue)
	}
}

func TestGateHoldsBatteryLevel(t *testing.T) {
	// Signals significant at a lone 0.05 level but not at the corrected
	// 0.05/7 must be rejected, or the per-analysis false-positive rate
	// compounds across the battery.
	counter := detect.Signal{Kind: detect.SignalCounter, RawRate: 27.0 / 60.0, Samples: 60}
	d := defaultGate().gate(counter)
	if d.PValue >= 0.05 {
		t.Fatalf("setup broken: 27/60 should be nominally significant, p=%v", d.PValue)
	}
	if d.Accepted {
		t.Errorf("27/60 counter rate must fail the corrected level, p=%v", d.PValue)
	}

	repeat := detect.Signal{Kind: detect.SignalPostResultRepeat, AfterOutcome: game.Loss, RawRate: 7.0 / 10.0, Samples: 10}
	d = defaultGate().gate(repeat)
	if d.PValue >= 0.05 {
		t.Fatalf("setup broken: 7/10 should be nominally significant, p=%v", d.PValue)
	}
	if d.Accepted {
		t.Errorf("7/10 repeat rate must fail the corrected level, p=%v", d.PValue)
	}
}

func TestGateCounterRejectsSmallSample(t *testing.T) {
	// A perfect rate over too few transitions fails the sample minimum.
	signal := detect.Signal{Kind: detect.SignalCounter, RawRate: 1.0, Samples: 10}
	if d := defaultGate().gate(signal); d.Accepted {
		t.Error("10 transitions is below the reactive minimum")
	}
}

func TestGatePostResultRepeat(t *testing.T) {
	accept := detect.Signal{Kind: detect.SignalPostResultRepeat, AfterOutcome: game.Win, RawRate: 9.0 / 12.0, Samples: 12}
	if d := defaultGate().gate(accept); !d.Accepted {
		t.Errorf("75%% repeat over 12 priors must be accepted, p=%v", d.PValue)
	}

	reject := detect.Signal{Kind: detect.SignalPostResultRepeat, AfterOutcome: game.Win, RawRate: 5.0 / 12.0, Samples: 12}
	if d := defaultGate().gate(reject); d.Accepted {
		t.Errorf("42%% repeat over 12 priors must be rejected, p=%v", d.PValue)
	}
}

func TestGateMarkovBonferroni(t *testing.T) {
	strong := detect.Signal{
		Kind: detect.SignalMarkovMatch, Order: 1,
		Context: []game.Move{game.Rock}, Predicted: game.Paper,
		RawRate: 11.0 / 12.0, Samples: 12, Support: 12,
	}
	if d := defaultGate().gate(strong); !d.Accepted {
		t.Errorf("11/12 conditional hits must survive the corrected level, p=%v", d.PValue)
	}

	// Half the hits sit nowhere near the per-cell corrected level.
	weak := strong
	weak.RawRate = 6.0 / 12.0
	if d := defaultGate().gate(weak); d.Accepted {
		t.Errorf("6/12 conditional hits must fail the corrected level, p=%v", d.PValue)
	}
}

func TestGateBaselineModeIsLooser(t *testing.T) {
	baseline := NewGate(detect.DefaultThresholds(), detect.GateBaselineThresholds)
	signal := detect.Signal{Kind: detect.SignalCounter, RawRate: 0.36, Samples: 30}

	if d := defaultGate().gate(signal); d.Accepted {
		t.Error("0.36 over 30 transitions must be rejected by the significance gate")
	}
	if d := baseline.gate(signal); !d.Accepted {
		t.Error("0.36 over 30 transitions passes the raw-threshold baseline")
	}
}

func TestGateApplyIsDeterministic(t *testing.T) {
	signals := []detect.Signal{
		{Kind: detect.SignalCounter, RawRate: 0.5, Samples: 40},
		{Kind: detect.SignalCopier, RawRate: 0.2, Samples: 40},
		{Kind: detect.SignalPostResultRepeat, AfterOutcome: game.Loss, RawRate: 0.7, Samples: 10},
	}
	g := defaultGate()
	first := g.Apply(signals)
	second := g.Apply(signals)
	if !reflect.DeepEqual(first, second) {
		t.Error("gating the same signals twice must produce identical rulings")
	}
	if len(first) != len(signals) {
		t.Errorf("got %d rulings for %d signals", len(first), len(signals))
	}
}

func TestGateUnknownSignalKind(t *testing.T) {
	d := defaultGate().gate(detect.Signal{Kind: "sorcery", RawRate: 1.0, Samples: 100})
	if d.Accepted {
		t.Error("unknown signal kinds must never be accepted")
	}
	if d.PValue != 1.0 {
		t.Errorf("p-value = %v, want 1.0", d.PValue)
	}
}
