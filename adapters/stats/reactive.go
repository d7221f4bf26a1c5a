package stats

import (
	"oppsight/domain/core"
	"oppsight/domain/detect"
	"oppsight/domain/game"
)

// ReactiveAnalyzer measures correlation between the opponent's move and the
// observer's preceding move and outcome.
type ReactiveAnalyzer struct {
	cfg detect.Thresholds
}

// NewReactiveAnalyzer creates a reactive transition analyzer.
func NewReactiveAnalyzer(cfg detect.Thresholds) *ReactiveAnalyzer {
	return &ReactiveAnalyzer{cfg: cfg}
}

// Analyze walks every adjacent turn pair and computes the transition
// indicator rates. Counter/copy/opposite are disjoint categories over the
// same denominator, so their sum never exceeds 1. Post-result rates are
// conditioned on the previous outcome from the opponent's perspective: the
// observer's loss means the opponent won. Rates whose qualifying priors fall
// below the configured minimum come back undefined, never zero.
func (a *ReactiveAnalyzer) Analyze(seq *game.Sequence) (*detect.ReactiveRates, error) {
	if seq.Len() < 2 {
		return nil, core.NewInsufficientDataError("reactive analyzer", seq.Len(), 2)
	}

	var counter, copies, opposite int
	var repeatAfterOppLoss, switchAfterOppLoss, oppLosses int
	var repeatAfterOppWin, switchAfterOppWin, oppWins int

	for i := 1; i < seq.Len(); i++ {
		prev := seq.Turns[i-1]
		curr := seq.Turns[i]

		switch curr.OpponentMove {
		case prev.OwnMove.Counter():
			counter++
		case prev.OwnMove:
			copies++
		case prev.OwnMove.Beats():
			opposite++
		}

		switch prev.Outcome {
		case game.Win: // observer won, opponent lost
			oppLosses++
			if curr.OpponentMove == prev.OpponentMove {
				repeatAfterOppLoss++
			} else {
				switchAfterOppLoss++
			}
		case game.Loss: // observer lost, opponent won
			oppWins++
			if curr.OpponentMove == prev.OpponentMove {
				repeatAfterOppWin++
			} else {
				switchAfterOppWin++
			}
		}
	}

	transitions := seq.Len() - 1
	rates := &detect.ReactiveRates{
		Counter:  detect.DefinedRate(counter, transitions),
		Copy:     detect.DefinedRate(copies, transitions),
		Opposite: detect.DefinedRate(opposite, transitions),
	}

	min := a.cfg.PostResultMinSamples
	rates.RepeatAfterLoss = conditionalRate(repeatAfterOppLoss, oppLosses, min)
	rates.SwitchAfterLoss = conditionalRate(switchAfterOppLoss, oppLosses, min)
	rates.RepeatAfterWin = conditionalRate(repeatAfterOppWin, oppWins, min)
	rates.SwitchAfterWin = conditionalRate(switchAfterOppWin, oppWins, min)

	return rates, nil
}

// Signals converts the measured rates into raw detection signals for the
// gate: counter, copier, and the two post-result repeat signals. Undefined
// rates emit nothing.
func (a *ReactiveAnalyzer) Signals(rates *detect.ReactiveRates) []detect.Signal {
	var signals []detect.Signal

	signals = append(signals, detect.Signal{
		Kind:    detect.SignalCounter,
		RawRate: rates.Counter.Value,
		Samples: rates.Counter.Samples,
	})
	signals = append(signals, detect.Signal{
		Kind:    detect.SignalCopier,
		RawRate: rates.Copy.Value,
		Samples: rates.Copy.Samples,
	})

	if rates.RepeatAfterLoss.Defined {
		signals = append(signals, detect.Signal{
			Kind:         detect.SignalPostResultRepeat,
			AfterOutcome: game.Loss, // opponent's loss
			RawRate:      rates.RepeatAfterLoss.Value,
			Samples:      rates.RepeatAfterLoss.Samples,
		})
	}
	if rates.RepeatAfterWin.Defined {
		signals = append(signals, detect.Signal{
			Kind:         detect.SignalPostResultRepeat,
			AfterOutcome: game.Win, // opponent's win
			RawRate:      rates.RepeatAfterWin.Value,
			Samples:      rates.RepeatAfterWin.Samples,
		})
	}

	return signals
}

func conditionalRate(count, total, minSamples int) detect.Rate {
	if total < minSamples {
		return detect.UndefinedRate(total)
	}
	return detect.DefinedRate(count, total)
}
