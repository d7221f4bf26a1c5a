package detect

// GateMode selects between the production significance gate and the
// fixed-threshold baseline it replaced. The baseline exists only so the
// evaluator can measure the false-positive rate the gate buys back; it is
// a mode on one implementation, not a second detector.
type GateMode string

const (
	// GateSignificance applies hypothesis tests before accepting a signal.
	GateSignificance GateMode = "significance"
	// GateBaselineThresholds accepts on raw-rate thresholds alone. Diagnostic only.
	GateBaselineThresholds GateMode = "baseline"
)

// Thresholds centralizes every tunable constant in the detection pipeline.
// Raw-detector minimums and gate criteria are deliberately separate fields so
// they stay independently tunable.
type Thresholds struct {
	// Windowing / classification minimums
	MinTurnsClassify int // classifier returns insufficient_data below this
	MinWindowSize    int
	TargetWindows    int

	// Distribution / bias
	BiasMinSamples    int     // turns required before the bias test runs
	BiasAlpha         float64 // nominal chi-square significance level
	BiasEffectFloor   float64 // dominant share required on top of significance
	BiasMaxConfidence float64

	// BatterySize is the number of tests the full signal battery runs per
	// analysis: bias, counter, copier, the two post-result contexts, and one
	// per Markov order. The gate Bonferroni-divides every nominal alpha by
	// it so the trial-level false-positive rate holds near the nominal
	// level instead of multiplying with each test.
	BatterySize int

	// Reactive transitions
	ReactiveMinTurns      int     // turns required before counter/copy gating
	PostResultMinSamples  int     // qualifying priors per post-result rate
	ReactiveAlpha         float64 // nominal binomial significance level
	ReactiveNullRate      float64 // null for counter/copy (uniform play)
	ReactiveEffectFloor   float64 // raw counter/copy rate required on top of significance
	PostResultNullRate    float64 // null for repeat-after-result
	PostResultEffectFloor float64 // raw repeat rate required on top of significance
	BinomialConfidence    float64 // reported confidence on binomial acceptance

	// Markov pattern mining
	MarkovMinSupport int              // context occurrences required for eligibility
	MarkovMinTurns   map[int]int      // per-order sequence length minimum
	MarkovRatioFloor map[int]float64  // per-order conditional-probability threshold

	// Classifier trend thresholds (normalized entropy scale)
	NashDeviationMax    float64 // total abs deviation from uniform
	CyclingMinFraction  float64 // fraction of consecutive window pairs rotating forward
	EntropyTrendDelta   float64 // first-to-last entropy change that counts as a trend
	WinRateTrendDelta   float64 // opponent win-rate improvement required for learning
	ShiftPerMoveDelta   float64 // per-move change that counts as a distribution shift
	MinShiftsForAdaptive int    // shifts required for actively_adapting

	// Baseline (ungated) mode
	BaselineBiasShare    float64
	BaselineBiasMinTurns int
	BaselineReactiveRate float64
	BaselineMinTurns     int
}

// DefaultThresholds returns the production configuration. The numbers come
// from the calibration study behind the gate: nominal alpha 0.05 per test,
// divided across the seven-test battery before any ruling, and the 0.45
// effect floor keeps small-sample significance from turning into a
// detection on its own.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTurnsClassify: 15,
		MinWindowSize:    10,
		TargetWindows:    5,

		BiasMinSamples:    5,
		BiasAlpha:         0.05,
		BiasEffectFloor:   0.45,
		BiasMaxConfidence: 0.9,

		BatterySize: 7,

		ReactiveMinTurns:      20,
		PostResultMinSamples:  5,
		ReactiveAlpha:         0.05,
		ReactiveNullRate:      1.0 / 3.0,
		ReactiveEffectFloor:   0.38,
		PostResultNullRate:    1.0 / 3.0,
		PostResultEffectFloor: 0.45,
		BinomialConfidence:    0.7,

		MarkovMinSupport: 5,
		MarkovMinTurns:   map[int]int{1: 10, 3: 30},
		MarkovRatioFloor: map[int]float64{1: 0.4, 3: 0.6},

		NashDeviationMax:     0.1,
		CyclingMinFraction:   0.5,
		EntropyTrendDelta:    0.2,
		WinRateTrendDelta:    0.1,
		ShiftPerMoveDelta:    0.2,
		MinShiftsForAdaptive: 3,

		BaselineBiasShare:    0.4,
		BaselineBiasMinTurns: 5,
		BaselineReactiveRate: 0.35,
		BaselineMinTurns:     10,
	}
}

// MarkovOrders lists the context lengths the detector mines, lowest first.
func (t Thresholds) MarkovOrders() []int {
	return []int{1, 3}
}
