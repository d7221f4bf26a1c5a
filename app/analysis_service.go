// Package app wires the raw analyzers, the significance gate, and the
// classifier into the per-opponent analysis pipeline.
package app

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"oppsight/adapters/stats"
	"oppsight/domain/core"
	"oppsight/domain/detect"
	"oppsight/domain/game"
	"oppsight/ports"
)

// AnalysisService runs the full detection pipeline for one opponent:
// windowed distribution/entropy profiles, reactive transition rates,
// variable-order Markov mining, significance gating, and adaptation
// classification. The service is stateless and safe for concurrent use.
type AnalysisService struct {
	cfg        detect.Thresholds
	windows    game.WindowPolicy
	reactive   *stats.ReactiveAnalyzer
	markov     *stats.MarkovDetector
	gate       *stats.Gate
	classifier *stats.Classifier
}

// NewAnalysisService builds the pipeline in the given gate mode. Production
// callers pass detect.GateSignificance.
func NewAnalysisService(cfg detect.Thresholds, mode detect.GateMode) *AnalysisService {
	return &AnalysisService{
		cfg:        cfg,
		windows:    game.WindowPolicy{MinSize: cfg.MinWindowSize, TargetWindows: cfg.TargetWindows},
		reactive:   stats.NewReactiveAnalyzer(cfg),
		markov:     stats.NewMarkovDetector(cfg),
		gate:       stats.NewGate(cfg, mode),
		classifier: stats.NewClassifier(cfg),
	}
}

// AnalyzeSequence produces the complete report for one opponent. Analysis
// is a pure function of the sequence: no hidden state, no randomness.
func (s *AnalysisService) AnalyzeSequence(seq *game.Sequence) (*detect.OpponentReport, error) {
	if seq == nil {
		return nil, fmt.Errorf("analyze: %w", core.ErrInsufficientData)
	}

	report := &detect.OpponentReport{
		Opponent:   seq.Opponent,
		TotalTurns: seq.Len(),
	}

	report.Windows = s.windowProfiles(seq)

	var signals []detect.Signal
	if bias, ok := stats.BiasSignal(seq.OpponentMoves(), s.cfg.BiasMinSamples); ok {
		signals = append(signals, bias)
	}

	if rates, err := s.reactive.Analyze(seq); err == nil {
		report.Reactive = rates
		signals = append(signals, s.reactive.Signals(rates)...)
	} else if !core.IsInsufficientData(err) {
		return nil, err
	}

	moves := seq.OpponentMoves()
	for _, order := range s.cfg.MarkovOrders() {
		signal, ok, err := s.markov.Analyze(moves, order)
		if err != nil {
			if core.IsInsufficientData(err) {
				continue
			}
			return nil, err
		}
		if ok {
			signals = append(signals, signal)
		}
	}

	report.Detections = s.gate.Apply(signals)
	report.Shifts = s.classifier.Shifts(report.Windows)

	if seq.Len() < s.cfg.MinTurnsClassify {
		report.Label = detect.LabelInsufficientData
		return report, nil
	}
	report.Label = s.classifier.Classify(report.Windows, report.Detections)
	return report, nil
}

// windowProfiles slices the sequence and summarizes each window. WinRate is
// the opponent's: the observer's loss is the opponent's win.
func (s *AnalysisService) windowProfiles(seq *game.Sequence) []detect.WindowProfile {
	windows := s.windows.Split(seq)
	profiles := make([]detect.WindowProfile, len(windows))
	for i, w := range windows {
		dist := stats.DistributionOf(w.OpponentMoves())
		var oppWins int
		for _, t := range w.Turns {
			if t.Outcome == game.Loss {
				oppWins++
			}
		}
		profiles[i] = detect.WindowProfile{
			Start:        w.Start,
			End:          w.End,
			Distribution: dist,
			Entropy:      stats.NormalizedEntropy(dist),
			Dominant:     dist.Dominant(),
			WinRate:      float64(oppWins) / float64(w.Len()),
		}
	}
	return profiles
}

// AnalyzeAll fans the pipeline out across every opponent the history knows
// about. Analyses are mutually independent, so they run in parallel; the
// history source is read-only during the run.
func (s *AnalysisService) AnalyzeAll(ctx context.Context, history ports.BattleHistory, minTurns int) ([]*detect.OpponentReport, error) {
	opponents, err := history.ListOpponents(ctx, minTurns)
	if err != nil {
		return nil, fmt.Errorf("list opponents: %w", err)
	}

	var mu sync.Mutex
	reports := make([]*detect.OpponentReport, 0, len(opponents))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, id := range opponents {
		id := id
		g.Go(func() error {
			seq, err := history.SequenceFor(ctx, id)
			if err != nil {
				return fmt.Errorf("sequence for %s: %w", id, err)
			}
			report, err := s.AnalyzeSequence(seq)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", id, err)
			}
			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Opponent < reports[j].Opponent })
	return reports, nil
}
