package hypothesis

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypotest/domain/stats"
	"hypotest/internal/errors"
)

func TestCompareMeans_SeparatedGroups(t *testing.T) {
	a := []float64{10, 12, 14, 16, 18}
	b := []float64{20, 22, 24, 26, 28}

	result, err := CompareMeans(a, b, 0.05)
	require.NoError(t, err)

	assert.InDelta(t, 14.0, result.MeanA, 1e-12)
	assert.InDelta(t, 24.0, result.MeanB, 1e-12)
	assert.InDelta(t, 10.0, result.VarianceA, 1e-12)
	assert.InDelta(t, 10.0, result.VarianceB, 1e-12)
	assert.InDelta(t, 2.0, result.StandardError, 1e-12)
	assert.InDelta(t, -5.0, result.Statistic, 1e-12)
	assert.InDelta(t, 8.0, result.DegreesOfFreedom, 1e-9)
	assert.Greater(t, result.PValue, 0.0005)
	assert.Less(t, result.PValue, 0.002)
	assert.True(t, result.RejectNull)
	assert.False(t, result.Degenerate)
	assert.Equal(t, stats.MethodWelch, result.Method)
	assert.Equal(t, stats.TwoSided, result.Alternative)
	assert.Equal(t, 5, result.NA)
	assert.Equal(t, 5, result.NB)
	assert.False(t, result.ConfidenceInterval.Contains(0))
	assert.True(t, result.ConfidenceInterval.Contains(-10))
}

// Reference values from R's t.test on the same data.
func TestCompare_ReferenceValues(t *testing.T) {
	s1 := []float64{2, 1, 3, 4}
	s2 := []float64{6, 5, 7, 9}

	tests := []struct {
		name   string
		config Config
		t      float64
		df     float64
		p      float64
	}{
		{"welch two-sided", Config{stats.MethodWelch, stats.TwoSided}, -3.9703446152237674, 5.584615384615385, 0.0085128631313781695},
		{"welch less", Config{stats.MethodWelch, stats.Less}, -3.9703446152237674, 5.584615384615385, 0.004256431565689112},
		{"welch greater", Config{stats.MethodWelch, stats.Greater}, -3.9703446152237674, 5.584615384615385, 0.9957435684343109},
		{"student two-sided", Config{stats.MethodStudent, stats.TwoSided}, -3.9703446152237674, 6, 0.0073640592242113214},
		{"student less", Config{stats.MethodStudent, stats.Less}, -3.9703446152237674, 6, 0.0036820296121056195},
		{"student greater", Config{stats.MethodStudent, stats.Greater}, -3.9703446152237674, 6, 0.9963179703878944},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewMeanComparator(tt.config).Compare(s1, s2, 0.05)
			require.NoError(t, err)
			assert.InDelta(t, tt.t, result.Statistic, 1e-9)
			assert.InDelta(t, tt.df, result.DegreesOfFreedom, 1e-9)
			assert.InDelta(t, tt.p, result.PValue, 1e-7)
			assert.Equal(t, result.PValue < 0.05, result.RejectNull)
		})
	}
}

func TestCompareMeans_ConstantEqualSamples(t *testing.T) {
	a := []float64{5, 5, 5, 5}
	b := []float64{5, 5, 5, 5}

	result, err := CompareMeans(a, b, 0.05)
	require.NoError(t, err)

	assert.True(t, result.Degenerate)
	assert.Equal(t, 0.0, result.Statistic)
	assert.Equal(t, 1.0, result.PValue)
	assert.False(t, result.RejectNull)
	assert.Equal(t, 0.0, result.EffectSize)
	assert.Equal(t, 6.0, result.DegreesOfFreedom)
}

func TestCompareMeans_ConstantUnequalSamples(t *testing.T) {
	_, err := CompareMeans([]float64{5, 5, 5}, []float64{6, 6, 6}, 0.05)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrDegenerateVariance))
	assert.Equal(t, errors.CodeDegenerateVariance, errors.GetCode(err))
}

func TestCompareMeans_ConstantEqualSamplesOfDifferentSizes(t *testing.T) {
	constant := func(v float64, n int) []float64 {
		sample := make([]float64, n)
		for i := range sample {
			sample[i] = v
		}
		return sample
	}

	for _, v := range []float64{0.1, 0.3, 0.7, 1.1, 2.2, 3.3, 1e-3, 123.456} {
		for nA := 2; nA <= 8; nA++ {
			for nB := 2; nB <= 8; nB++ {
				result, err := CompareMeans(constant(v, nA), constant(v, nB), 0.05)
				require.NoError(t, err, "v=%v nA=%d nB=%d", v, nA, nB)
				assert.True(t, result.Degenerate)
				assert.Equal(t, v, result.MeanA)
				assert.Equal(t, v, result.MeanB)
				assert.Equal(t, 0.0, result.Statistic)
				assert.Equal(t, 1.0, result.PValue)
				assert.False(t, result.RejectNull)
				assert.Equal(t, float64(nA+nB-2), result.DegreesOfFreedom)
			}
		}
	}
}

func TestCompareMeans_OverflowingSample(t *testing.T) {
	tests := []struct {
		name   string
		method stats.Method
		a, b   []float64
	}{
		{"variance overflows", stats.MethodWelch, []float64{1e200, -1e200, 5}, []float64{1, 2, 3}},
		{"variance overflows in B", stats.MethodWelch, []float64{1, 2, 3}, []float64{-1e200, 1e200, 5}},
		{"pooled variance overflows", stats.MethodStudent, []float64{1e200, -1e200, 5}, []float64{1, 2, 3}},
		{"mean overflows", stats.MethodWelch, []float64{math.MaxFloat64, math.MaxFloat64, 1}, []float64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMeanComparator(Config{Method: tt.method}).Compare(tt.a, tt.b, 0.05)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidSample), "got %v", err)
		})
	}
}

func TestCompareMeans_TinyScaleStaysFinite(t *testing.T) {
	result, err := CompareMeans([]float64{1e-150, 2e-150, 3e-150}, []float64{4e-150, 5e-150, 7e-150}, 0.05)
	require.NoError(t, err)

	assert.False(t, math.IsNaN(result.DegreesOfFreedom))
	assert.Greater(t, result.DegreesOfFreedom, 2.0)
	assert.Less(t, result.Statistic, 0.0)
}

func TestCompareMeans_OneConstantSample(t *testing.T) {
	result, err := CompareMeans([]float64{5, 5, 5, 5}, []float64{1, 2, 3, 4}, 0.05)
	require.NoError(t, err)

	// Only sample B contributes, so Welch df collapses to nB-1.
	assert.InDelta(t, 3.0, result.DegreesOfFreedom, 1e-12)
	assert.Greater(t, result.Statistic, 0.0)
	assert.False(t, math.IsInf(result.Statistic, 0))
}

func TestCompareMeans_IdenticalSamples(t *testing.T) {
	a := []float64{3.2, 7.7, 1.5, 9.9, 4.4}
	b := []float64{9.9, 1.5, 4.4, 3.2, 7.7}

	result, err := CompareMeans(a, b, 0.05)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Statistic)
	assert.Equal(t, 1.0, result.PValue)
	assert.False(t, result.RejectNull)
	assert.False(t, result.Degenerate)
}

func TestCompareMeans_MinimalSamples(t *testing.T) {
	result, err := CompareMeans([]float64{1, 2}, []float64{3, 5}, 0.05)
	require.NoError(t, err)

	assert.False(t, math.IsNaN(result.Statistic))
	assert.False(t, math.IsInf(result.Statistic, 0))
	assert.GreaterOrEqual(t, result.PValue, 0.0)
	assert.LessOrEqual(t, result.PValue, 1.0)
}

func TestCompareMeans_Antisymmetry(t *testing.T) {
	a := []float64{1021, 2400, 1980, 2760, 1500, 2100}
	b := []float64{2400, 2969, 3060, 2520, 2700}

	ab, err := CompareMeans(a, b, 0.05)
	require.NoError(t, err)
	ba, err := CompareMeans(b, a, 0.05)
	require.NoError(t, err)

	assert.Equal(t, ab.Statistic, -ba.Statistic)
	assert.Equal(t, ab.PValue, ba.PValue)
	assert.Equal(t, ab.RejectNull, ba.RejectNull)
	assert.Equal(t, ab.DegreesOfFreedom, ba.DegreesOfFreedom)
	assert.Equal(t, ab.EffectSize, -ba.EffectSize)
}

func TestCompareMeans_DoesNotMutateInput(t *testing.T) {
	a := []float64{9, 1, 8, 2, 7}
	b := []float64{3, 6, 4, 5}
	origA := append([]float64(nil), a...)
	origB := append([]float64(nil), b...)

	_, err := CompareMeans(a, b, 0.05)
	require.NoError(t, err)

	assert.Equal(t, origA, a)
	assert.Equal(t, origB, b)
}

func TestCompareMeans_InvalidInput(t *testing.T) {
	valid := []float64{1, 2, 3}

	tests := []struct {
		name     string
		a, b     []float64
		alpha    float64
		sentinel error
	}{
		{"empty A", []float64{}, valid, 0.05, errors.ErrInvalidSample},
		{"nil B", valid, nil, 0.05, errors.ErrInvalidSample},
		{"single value", []float64{1}, valid, 0.05, errors.ErrInvalidSample},
		{"NaN", []float64{1, math.NaN()}, valid, 0.05, errors.ErrInvalidSample},
		{"infinity", valid, []float64{1, math.Inf(1)}, 0.05, errors.ErrInvalidSample},
		{"alpha zero", valid, valid, 0, errors.ErrInvalidConfiguration},
		{"alpha one", valid, valid, 1, errors.ErrInvalidConfiguration},
		{"alpha negative", valid, valid, -0.1, errors.ErrInvalidConfiguration},
		{"alpha NaN", valid, valid, math.NaN(), errors.ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompareMeans(tt.a, tt.b, tt.alpha)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.sentinel), "got %v", err)
		})
	}
}

func TestCompare_UnknownMethod(t *testing.T) {
	c := NewMeanComparator(Config{Method: "bayesian"})
	_, err := c.Compare([]float64{1, 2}, []float64{3, 4}, 0.05)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidConfiguration))

	c = NewMeanComparator(Config{Alternative: "sideways"})
	_, err = c.Compare([]float64{1, 2}, []float64{3, 4}, 0.05)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidConfiguration))
}

func TestNewMeanComparator_Defaults(t *testing.T) {
	c := NewMeanComparator(Config{})
	assert.Equal(t, DefaultConfig(), c.Config())
}

func TestConfidenceInterval_MatchesDecision(t *testing.T) {
	a := []float64{12.1, 14.3, 11.8, 13.0, 12.7, 15.2}
	b := []float64{13.9, 15.1, 16.4, 14.8, 15.7}

	for _, alpha := range []float64{0.01, 0.05, 0.10} {
		result, err := CompareMeans(a, b, alpha)
		require.NoError(t, err)
		assert.Equal(t, result.RejectNull, !result.ConfidenceInterval.Contains(0), "alpha %v", alpha)
		assert.InDelta(t, result.MeanDifference(),
			(result.ConfidenceInterval.Lower+result.ConfidenceInterval.Upper)/2, 1e-9)
	}
}
