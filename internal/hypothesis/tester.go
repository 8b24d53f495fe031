// Package hypothesis compares the means of two numeric samples with
// two-sample t-tests and decides against a significance level.
//
// Every function here is pure: inputs are never modified and no state is
// shared between calls, so comparisons may run in parallel freely.
package hypothesis

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"hypotest/domain/stats"
	"hypotest/internal/errors"
)

// MinSampleSize is the smallest sample with a defined unbiased variance
const MinSampleSize = 2

// DefaultAlpha is the conventional significance level
const DefaultAlpha = 0.05

// Config selects the variant of the two-sample t-test
type Config struct {
	Method      stats.Method
	Alternative stats.Alternative
}

// DefaultConfig is Welch's unequal-variance test, two-tailed
func DefaultConfig() Config {
	return Config{
		Method:      stats.MethodWelch,
		Alternative: stats.TwoSided,
	}
}

// MeanComparator runs two-sample t-tests with a fixed configuration
type MeanComparator struct {
	config Config
}

// NewMeanComparator creates a comparator; zero-valued fields take the defaults
func NewMeanComparator(config Config) *MeanComparator {
	if config.Method == "" {
		config.Method = stats.MethodWelch
	}
	if config.Alternative == "" {
		config.Alternative = stats.TwoSided
	}
	return &MeanComparator{config: config}
}

// Config returns the comparator's configuration
func (c *MeanComparator) Config() Config {
	return c.config
}

// CompareMeans runs Welch's two-tailed t-test on sampleA and sampleB.
//
// It fails with ErrInvalidSample when either sample has fewer than two values
// or a non-finite value, or when its moments overflow float64, and with
// ErrInvalidConfiguration when alpha is outside (0, 1). When the standard error
// is zero and the means are equal the result is degenerate (statistic 0,
// p-value 1, null kept); with unequal means the statistic is undefined and
// ErrDegenerateVariance is returned.
func CompareMeans(sampleA, sampleB []float64, alpha float64) (stats.TestResult, error) {
	return NewMeanComparator(DefaultConfig()).Compare(sampleA, sampleB, alpha)
}

// Compare runs the configured t-test; see CompareMeans for the error contract.
func (c *MeanComparator) Compare(sampleA, sampleB []float64, alpha float64) (stats.TestResult, error) {
	if err := c.validate(alpha); err != nil {
		return stats.TestResult{}, err
	}
	if err := validateSample("A", sampleA); err != nil {
		return stats.TestResult{}, err
	}
	if err := validateSample("B", sampleB); err != nil {
		return stats.TestResult{}, err
	}

	meanA, varA := moments(sampleA)
	meanB, varB := moments(sampleB)
	if err := checkMoments("A", meanA, varA); err != nil {
		return stats.TestResult{}, err
	}
	if err := checkMoments("B", meanB, varB); err != nil {
		return stats.TestResult{}, err
	}
	nA, nB := float64(len(sampleA)), float64(len(sampleB))

	result := stats.TestResult{
		Alpha:       alpha,
		Method:      c.config.Method,
		Alternative: c.config.Alternative,
		MeanA:       meanA,
		MeanB:       meanB,
		VarianceA:   varA,
		VarianceB:   varB,
		NA:          len(sampleA),
		NB:          len(sampleB),
		EffectSize:  cohensD(meanA, meanB, varA, varB, nA, nB),
	}

	var se, df float64
	switch c.config.Method {
	case stats.MethodStudent:
		se, df = pooledStandardError(varA, varB, nA, nB)
	default:
		se, df = welchStandardError(varA, varB, nA, nB)
	}

	if se == 0 {
		if meanA != meanB {
			return stats.TestResult{}, errors.DegenerateVariance(meanA, meanB)
		}
		// Both samples constant at the same value: nothing to distinguish.
		result.Degenerate = true
		result.Statistic = 0
		result.PValue = 1
		result.DegreesOfFreedom = nA + nB - 2
		result.ConfidenceInterval = stats.Interval{}
		result.RejectNull = result.PValue < alpha
		return result, nil
	}

	t := (meanA - meanB) / se
	if !isFinite(se) || !isFinite(df) || !isFinite(t) || !isFinite(result.EffectSize) {
		return stats.TestResult{}, errors.InvalidSample("samples overflow float64 (se=%v, df=%v, t=%v)", se, df, t)
	}

	result.Statistic = t
	result.StandardError = se
	result.DegreesOfFreedom = df
	result.PValue = pValue(t, df, c.config.Alternative)
	result.RejectNull = result.PValue < alpha
	result.ConfidenceInterval = confidenceInterval(meanA-meanB, se, df, alpha)

	return result, nil
}

func (c *MeanComparator) validate(alpha float64) error {
	if math.IsNaN(alpha) || alpha <= 0 || alpha >= 1 {
		return errors.InvalidConfiguration("significance level %g outside (0, 1)", alpha)
	}
	switch c.config.Method {
	case stats.MethodWelch, stats.MethodStudent:
	default:
		return errors.InvalidConfiguration("unknown test method %q", c.config.Method)
	}
	switch c.config.Alternative {
	case stats.TwoSided, stats.Less, stats.Greater:
	default:
		return errors.InvalidConfiguration("unknown alternative %q", c.config.Alternative)
	}
	return nil
}

func validateSample(label string, sample []float64) error {
	if len(sample) < MinSampleSize {
		return errors.InvalidSample("sample %s has %d values, need at least %d", label, len(sample), MinSampleSize)
	}
	for i, v := range sample {
		if !isFinite(v) {
			return errors.InvalidSample("sample %s has non-finite value %v at index %d", label, v, i)
		}
	}
	return nil
}

// moments returns the mean and unbiased variance. The sum runs over a sorted
// copy so equal multisets produce identical moments whatever their order.
// A constant sample yields its value exactly, independent of its length.
func moments(sample []float64) (mean, variance float64) {
	sorted := slices.Clone(sample)
	slices.Sort(sorted)
	if sorted[0] == sorted[len(sorted)-1] {
		return sorted[0], 0
	}
	return stat.MeanVariance(sorted, nil)
}

func checkMoments(label string, mean, variance float64) error {
	if !isFinite(mean) || !isFinite(variance) {
		return errors.InvalidSample("sample %s overflows float64 (mean=%v, variance=%v)", label, mean, variance)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// welchStandardError returns sqrt(varA/nA + varB/nB) and the Welch-Satterthwaite df
func welchStandardError(varA, varB, nA, nB float64) (se, df float64) {
	qa, qb := varA/nA, varB/nB
	se = math.Sqrt(qa + qb)
	if se == 0 {
		return 0, nA + nB - 2
	}
	// Shares of the total keep the squares away from overflow and underflow.
	ra, rb := qa/(qa+qb), qb/(qa+qb)
	df = 1 / (ra*ra/(nA-1) + rb*rb/(nB-1))
	return se, df
}

// pooledStandardError returns Student's pooled standard error and nA+nB-2 df
func pooledStandardError(varA, varB, nA, nB float64) (se, df float64) {
	df = nA + nB - 2
	pooled := ((nA-1)*varA + (nB-1)*varB) / df
	return math.Sqrt(pooled * (1/nA + 1/nB)), df
}

// cohensD is the mean difference over the pooled standard deviation
func cohensD(meanA, meanB, varA, varB, nA, nB float64) float64 {
	pooledSD := math.Sqrt(((nA-1)*varA + (nB-1)*varB) / (nA + nB - 2))
	if pooledSD == 0 {
		return 0
	}
	return (meanA - meanB) / pooledSD
}
