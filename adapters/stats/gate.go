package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"oppsight/domain/detect"
)

// Gate wraps every raw detection signal in a hypothesis test before it may
// become a detection. Rejecting a signal that fails its test, regardless of
// how large the raw rate looks, is the behavioral contract that separates
// this detector from the fixed-threshold baseline it replaced.
//
// Every nominal alpha is Bonferroni-divided by the battery size, so the
// trial-level false-positive rate holds near the nominal level rather than
// compounding across the seven tests a full analysis runs.
//
// The gate is deterministic: the same signal over the same data always
// produces the same decision.
type Gate struct {
	cfg  detect.Thresholds
	mode detect.GateMode
}

// NewGate creates a gate in the given mode. Production callers use
// detect.GateSignificance; the baseline mode exists so the evaluator can
// measure what the hypothesis tests buy.
func NewGate(cfg detect.Thresholds, mode detect.GateMode) *Gate {
	return &Gate{cfg: cfg, mode: mode}
}

// Apply gates a batch of raw signals. Every input signal produces exactly
// one GatedDetection carrying its p-value and the accept/reject ruling.
func (g *Gate) Apply(signals []detect.Signal) []detect.GatedDetection {
	out := make([]detect.GatedDetection, 0, len(signals))
	for _, s := range signals {
		out = append(out, g.gate(s))
	}
	return out
}

func (g *Gate) gate(s detect.Signal) detect.GatedDetection {
	switch s.Kind {
	case detect.SignalBias:
		return g.gateBias(s)
	case detect.SignalCounter, detect.SignalCopier:
		return g.gateReactive(s)
	case detect.SignalPostResultRepeat:
		return g.gatePostResult(s)
	case detect.SignalMarkovMatch:
		return g.gateMarkov(s)
	default:
		return detect.GatedDetection{Signal: s, PValue: 1, Accepted: false}
	}
}

// gateBias runs a chi-square goodness-of-fit test of the observed 3-way
// counts against the uniform null (df=2). Significance alone is not enough
// on small samples: the dominant share must also clear the effect-size
// floor before the bias is accepted.
func (g *Gate) gateBias(s detect.Signal) detect.GatedDetection {
	n := s.Samples
	pValue := 1.0
	chiSq := 0.0
	if n > 0 {
		expected := float64(n) / 3.0
		for _, count := range s.Counts {
			diff := float64(count) - expected
			chiSq += diff * diff / expected
		}
		// Moves absent from the counts map still contribute (0-e)^2/e.
		chiSq += float64(3-len(s.Counts)) * expected
		pValue = chiSquarePValue(chiSq, 2)
	}

	if g.mode == detect.GateBaselineThresholds {
		accepted := n >= g.cfg.BaselineBiasMinTurns && s.RawRate > g.cfg.BaselineBiasShare
		return detect.GatedDetection{Signal: s, PValue: pValue, Accepted: accepted, Confidence: s.RawRate}
	}

	accepted := n >= g.cfg.BiasMinSamples &&
		pValue < g.testLevel(g.cfg.BiasAlpha) &&
		s.RawRate > g.cfg.BiasEffectFloor
	confidence := 0.0
	if accepted {
		confidence = math.Min(g.cfg.BiasMaxConfidence, s.RawRate)
	}
	return detect.GatedDetection{Signal: s, PValue: pValue, Accepted: accepted, Confidence: confidence}
}

// gateReactive tests counter/copier rates with a one-sided exact binomial
// test against the uniform null of 1/3.
func (g *Gate) gateReactive(s detect.Signal) detect.GatedDetection {
	count := int(math.Round(s.RawRate * float64(s.Samples)))
	pValue := binomialPValueGreater(count, s.Samples, g.cfg.ReactiveNullRate)

	if g.mode == detect.GateBaselineThresholds {
		accepted := s.Samples >= g.cfg.BaselineMinTurns-1 && s.RawRate > g.cfg.BaselineReactiveRate
		return detect.GatedDetection{Signal: s, PValue: pValue, Accepted: accepted, Confidence: 0.8}
	}

	accepted := s.Samples >= g.cfg.ReactiveMinTurns-1 &&
		s.RawRate > g.cfg.ReactiveEffectFloor &&
		pValue < g.testLevel(g.cfg.ReactiveAlpha)
	return g.binomialDecision(s, pValue, accepted)
}

// gatePostResult tests repeat-after-result rates against the configured
// null. The analyzer already enforced the qualifying-sample minimum; the
// gate re-checks so it stays safe on any input.
func (g *Gate) gatePostResult(s detect.Signal) detect.GatedDetection {
	count := int(math.Round(s.RawRate * float64(s.Samples)))
	pValue := binomialPValueGreater(count, s.Samples, g.cfg.PostResultNullRate)

	if g.mode == detect.GateBaselineThresholds {
		accepted := s.RawRate > g.cfg.PostResultEffectFloor
		return detect.GatedDetection{Signal: s, PValue: pValue, Accepted: accepted, Confidence: 0.8}
	}

	accepted := s.Samples >= g.cfg.PostResultMinSamples &&
		s.RawRate > g.cfg.PostResultEffectFloor &&
		pValue < g.testLevel(g.cfg.ReactiveAlpha)
	return g.binomialDecision(s, pValue, accepted)
}

// gateMarkov tests the reported context's conditional hit count against the
// uniform null, Bonferroni-corrected for the context->move cells the miner
// searched over: the detector reports the best of 3^(k+1) cells, so the
// per-cell level must shrink accordingly or high orders would alarm on
// noise.
func (g *Gate) gateMarkov(s detect.Signal) detect.GatedDetection {
	count := int(math.Round(s.RawRate * float64(s.Support)))
	pValue := binomialPValueGreater(count, s.Support, g.cfg.ReactiveNullRate)

	if g.mode == detect.GateBaselineThresholds {
		// Baseline trusts the raw ratio floor alone.
		return detect.GatedDetection{Signal: s, PValue: pValue, Accepted: true, Confidence: s.RawRate}
	}

	cells := math.Pow(3, float64(s.Order+1))
	accepted := s.Support >= g.cfg.MarkovMinSupport &&
		pValue < g.testLevel(g.cfg.ReactiveAlpha)/cells
	return g.binomialDecision(s, pValue, accepted)
}

// testLevel shrinks a nominal significance level by the battery size.
func (g *Gate) testLevel(alpha float64) float64 {
	if g.cfg.BatterySize > 1 {
		return alpha / float64(g.cfg.BatterySize)
	}
	return alpha
}

func (g *Gate) binomialDecision(s detect.Signal, pValue float64, accepted bool) detect.GatedDetection {
	confidence := 0.0
	if accepted {
		// Passing a significance test is not the same as high practical
		// confidence; binomial-gated signals report a fixed moderate value.
		confidence = g.cfg.BinomialConfidence
	}
	return detect.GatedDetection{Signal: s, PValue: pValue, Accepted: accepted, Confidence: confidence}
}

// chiSquarePValue computes the upper-tail p-value for a chi-square statistic.
func chiSquarePValue(chiSq float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 || chiSq <= 0 {
		return 1.0
	}
	dist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return 1 - dist.CDF(chiSq)
}

// binomialPValueGreater computes the one-sided exact p-value
// P(X >= count | n, nullRate).
func binomialPValueGreater(count, n int, nullRate float64) float64 {
	if n <= 0 {
		return 1.0
	}
	if count <= 0 {
		return 1.0
	}
	if count > n {
		count = n
	}
	dist := distuv.Binomial{N: float64(n), P: nullRate}
	return 1 - dist.CDF(float64(count-1))
}
