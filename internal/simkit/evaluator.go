package simkit

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"oppsight/app"
	"oppsight/domain/core"
	"oppsight/domain/detect"
	"oppsight/domain/game"
)

// EvalConfig parameterizes one evaluator run. Trials are per archetype and
// every trial is deterministic given Seed, so two runs with the same config
// score the exact same sequences.
type EvalConfig struct {
	Trials         int              `json:"trials"`
	TurnsPerTrial  int              `json:"turns_per_trial"`
	Noise          float64          `json:"noise"` // added to every archetype's own noise
	Seed           int64            `json:"seed"`
	Mode           detect.GateMode  `json:"mode"`
	Thresholds     detect.Thresholds `json:"-"`
	PolicyInterval int              `json:"policy_interval"` // informed-policy re-analysis cadence
	Workers        int              `json:"workers"`
}

// DefaultEvalConfig returns the standing calibration setup: 30-turn trials,
// the hardest regime the gate is tuned for.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		Trials:         500,
		TurnsPerTrial:  30,
		Seed:           1,
		Mode:           detect.GateSignificance,
		Thresholds:     detect.DefaultThresholds(),
		PolicyInterval: 5,
		Workers:        8,
	}
}

// Archetype is one named entry in the evaluation roster.
type Archetype struct {
	Name  string        `json:"name"`
	Model OpponentModel `json:"model"`
}

// DefaultArchetypes returns the standard roster: one opponent per pattern
// family the pipeline claims to detect, plus the random control that feeds
// the false-positive measurement.
func DefaultArchetypes() []Archetype {
	return []Archetype{
		{Name: "random", Model: OpponentModel{Kind: ModelRandom}},
		{Name: "pure_rock", Model: OpponentModel{Kind: ModelFixed, Pattern: game.Rock}},
		{Name: "biased_rock", Model: OpponentModel{Kind: ModelFixed, Pattern: game.Rock, Noise: 0.45}},
		{Name: "counter_45", Model: OpponentModel{Kind: ModelCounter, Rate: 0.45}},
		{Name: "counter_70", Model: OpponentModel{Kind: ModelCounter, Rate: 0.70}},
		{Name: "copier_50", Model: OpponentModel{Kind: ModelCopier, Rate: 0.50}},
		{Name: "loss_repeater_60", Model: OpponentModel{Kind: ModelLossRepeater, Rate: 0.60}},
		{Name: "markov1_rock_paper", Model: OpponentModel{
			Kind: ModelMarkov, Context: []game.Move{game.Rock}, Response: game.Paper, FollowRate: 0.8,
		}},
	}
}

// Confusion is the binary detection confusion matrix. Positive means the
// gate accepted at least one detection; truth comes from the archetype.
type Confusion struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	TN int `json:"tn"`
	FN int `json:"fn"`
}

func (c *Confusion) add(o Confusion) {
	c.TP += o.TP
	c.FP += o.FP
	c.TN += o.TN
	c.FN += o.FN
}

// Precision is TP / (TP + FP); zero when nothing was flagged.
func (c Confusion) Precision() float64 { return safeRatio(c.TP, c.TP+c.FP) }

// Recall is TP / (TP + FN); zero when no patterned trials ran.
func (c Confusion) Recall() float64 { return safeRatio(c.TP, c.TP+c.FN) }

// FalsePositiveRate is FP / (FP + TN) over the random control trials.
func (c Confusion) FalsePositiveRate() float64 { return safeRatio(c.FP, c.FP+c.TN) }

// Accuracy is the overall fraction of correct verdicts.
func (c Confusion) Accuracy() float64 { return safeRatio(c.TP+c.TN, c.TP+c.FP+c.TN+c.FN) }

// F1 is the harmonic mean of precision and recall.
func (c Confusion) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func safeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Metrics summarizes one run's confusion matrix plus detection-latency
// statistics over the true positives.
type Metrics struct {
	Confusion           Confusion `json:"confusion"`
	Precision           float64   `json:"precision"`
	Recall              float64   `json:"recall"`
	F1                  float64   `json:"f1"`
	Accuracy            float64   `json:"accuracy"`
	FalsePositiveRate   float64   `json:"false_positive_rate"`
	MeanDetectionTurn   float64   `json:"mean_detection_turn"`   // zero when nothing detected
	MedianDetectionTurn float64   `json:"median_detection_turn"`
}

func buildMetrics(c Confusion, detectionTurns []float64) Metrics {
	m := Metrics{
		Confusion:         c,
		Precision:         c.Precision(),
		Recall:            c.Recall(),
		F1:                c.F1(),
		Accuracy:          c.Accuracy(),
		FalsePositiveRate: c.FalsePositiveRate(),
	}
	if len(detectionTurns) > 0 {
		// montanaflynn/stats only errors on empty input, guarded above.
		m.MeanDetectionTurn, _ = stats.Mean(detectionTurns)
		m.MedianDetectionTurn, _ = stats.Median(detectionTurns)
	}
	return m
}

// ArchetypeOutcome is the per-archetype breakdown inside an evaluation.
type ArchetypeOutcome struct {
	Name              string        `json:"name"`
	Model             OpponentModel `json:"model"`
	Trials            int           `json:"trials"`
	Detected          int           `json:"detected"`
	DetectionRate     float64       `json:"detection_rate"`
	MeanDetectionTurn float64       `json:"mean_detection_turn"`
}

// Evaluation is the full output of one evaluator run.
type Evaluation struct {
	Run        core.RunID         `json:"run_id"`
	Mode       detect.GateMode    `json:"mode"`
	Config     EvalConfig         `json:"config"`
	Metrics    Metrics            `json:"metrics"`
	Archetypes []ArchetypeOutcome `json:"archetypes"`
}

// ModeComparison pairs the significance-gated run with the raw-threshold
// baseline on identical trial sequences.
type ModeComparison struct {
	Gated    *Evaluation `json:"gated"`
	Baseline *Evaluation `json:"baseline"`
}

// Evaluator scores the detection pipeline on synthetic opponents.
type Evaluator struct {
	cfg        EvalConfig
	svc        *app.AnalysisService
	archetypes []Archetype
}

// NewEvaluator builds an evaluator over the default roster.
func NewEvaluator(cfg EvalConfig) *Evaluator {
	return NewEvaluatorFor(cfg, DefaultArchetypes())
}

// NewEvaluatorFor builds an evaluator over a caller-chosen roster.
func NewEvaluatorFor(cfg EvalConfig, roster []Archetype) *Evaluator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Evaluator{
		cfg:        cfg,
		svc:        app.NewAnalysisService(cfg.Thresholds, cfg.Mode),
		archetypes: roster,
	}
}

// Run plays Trials matches per archetype against a random observer, scores
// each full sequence through the pipeline, and aggregates the confusion
// matrix. Trials are independent and run in parallel.
func (e *Evaluator) Run(ctx context.Context) (*Evaluation, error) {
	if e.cfg.Trials < 1 {
		return nil, core.ErrNoTrials
	}
	for _, arch := range e.archetypes {
		if err := arch.Model.Validate(); err != nil {
			return nil, fmt.Errorf("archetype %s: %w", arch.Name, err)
		}
	}

	var mu sync.Mutex
	var confusion Confusion
	var detectionTurns []float64

	type archAgg struct {
		detected int
		turns    []float64
	}
	perArch := make([]archAgg, len(e.archetypes))

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
				rng := rand.New(rand.NewSource(e.trialSeed(ai, trial)))
				model := arch.Model
				model.Noise += e.cfg.Noise

				opponent := core.OpponentID(fmt.Sprintf("sim-%s-%d", arch.Name, trial))
				seq := Generate(rng, opponent, model, e.cfg.TurnsPerTrial)
				report, err := e.svc.AnalyzeSequence(seq)
				if err != nil {
					return fmt.Errorf("trial %s: %w", opponent, err)
				}

				detected := len(report.Accepted()) > 0
				var cell Confusion
				switch {
				case detected && model.Patterned():
					cell.TP = 1
				case detected && !model.Patterned():
					cell.FP = 1
				case !detected && !model.Patterned():
					cell.TN = 1
				default:
					cell.FN = 1
				}

				var turn float64
				if detected && model.Patterned() {
					if at, ok := e.detectionTurn(seq); ok {
						turn = float64(at)
					}
				}

				mu.Lock()
				confusion.add(cell)
				if detected {
					perArch[ai].detected++
				}
				if turn > 0 {
					detectionTurns = append(detectionTurns, turn)
					perArch[ai].turns = append(perArch[ai].turns, turn)
				}
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	eval := &Evaluation{
		Run:     core.RunID(core.NewID()),
		Mode:    e.cfg.Mode,
		Config:  e.cfg,
		Metrics: buildMetrics(confusion, detectionTurns),
	}
	for ai, arch := range e.archetypes {
		outcome := ArchetypeOutcome{
			Name:          arch.Name,
			Model:         arch.Model,
			Trials:        e.cfg.Trials,
			Detected:      perArch[ai].detected,
			DetectionRate: safeRatio(perArch[ai].detected, e.cfg.Trials),
		}
		if len(perArch[ai].turns) > 0 {
			outcome.MeanDetectionTurn, _ = stats.Mean(perArch[ai].turns)
		}
		eval.Archetypes = append(eval.Archetypes, outcome)
	}
	sort.Slice(eval.Archetypes, func(i, j int) bool { return eval.Archetypes[i].Name < eval.Archetypes[j].Name })
	return eval, nil
}

// detectionTurn replays the pipeline over growing prefixes and returns the
// earliest turn count at which the gate accepts. Called only for sequences
// whose full-length verdict was positive, so the scan always terminates
// with a hit.
func (e *Evaluator) detectionTurn(seq *game.Sequence) (int, bool) {
	for n := e.cfg.Thresholds.BiasMinSamples; n <= seq.Len(); n++ {
		prefix := &game.Sequence{Opponent: seq.Opponent, Turns: seq.Turns[:n]}
		report, err := e.svc.AnalyzeSequence(prefix)
		if err != nil {
			return 0, false
		}
		if len(report.Accepted()) > 0 {
			return n, true
		}
	}
	return 0, false
}

// trialSeed derives a per-trial seed so every trial is reproducible and
// mode comparisons score byte-identical sequences.
func (e *Evaluator) trialSeed(archetype, trial int) int64 {
	return e.cfg.Seed + int64(archetype)*1_000_003 + int64(trial)
}

// CompareModes runs the significance gate and the raw-threshold baseline
// over the same seeded trials. The shared seed is what makes the
// false-positive comparison an apples-to-apples one.
func CompareModes(ctx context.Context, cfg EvalConfig) (*ModeComparison, error) {
	gatedCfg := cfg
	gatedCfg.Mode = detect.GateSignificance
	gated, err := NewEvaluator(gatedCfg).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("gated run: %w", err)
	}

	baseCfg := cfg
	baseCfg.Mode = detect.GateBaselineThresholds
	baseline, err := NewEvaluator(baseCfg).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("baseline run: %w", err)
	}

	return &ModeComparison{Gated: gated, Baseline: baseline}, nil
}
