package stats

import (
	"fmt"
	"strings"
)

// Method selects how the standard error and degrees of freedom are estimated
type Method string

const (
	// MethodWelch does not assume equal population variances
	MethodWelch Method = "welch"
	// MethodStudent pools both variances (equal-variance assumption)
	MethodStudent Method = "student"
)

// ParseMethod parses a method name; the empty string yields MethodWelch
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodWelch:
		return MethodWelch, nil
	case MethodStudent, "pooled":
		return MethodStudent, nil
	default:
		return "", fmt.Errorf("unknown test method %q (want welch or student)", s)
	}
}

// Alternative is the alternative hypothesis about meanA - meanB
type Alternative string

const (
	TwoSided Alternative = "two-sided"
	Less     Alternative = "less"
	Greater  Alternative = "greater"
)

// ParseAlternative parses an alternative name; the empty string yields TwoSided
func ParseAlternative(s string) (Alternative, error) {
	switch Alternative(strings.ToLower(strings.TrimSpace(s))) {
	case "", TwoSided, "two_sided", "two-tailed":
		return TwoSided, nil
	case Less:
		return Less, nil
	case Greater:
		return Greater, nil
	default:
		return "", fmt.Errorf("unknown alternative %q (want two-sided, less or greater)", s)
	}
}

// Interval is a closed interval [Lower, Upper]
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether x lies inside the interval
func (i Interval) Contains(x float64) bool {
	return x >= i.Lower && x <= i.Upper
}

// TestResult is the outcome of one two-sample mean comparison.
// INVARIANTS:
// - RejectNull == (PValue < Alpha)
// - PValue in [0, 1]
// - Degenerate results have Statistic 0 and PValue 1
type TestResult struct {
	Statistic          float64     `json:"statistic"`
	PValue             float64     `json:"p_value"`
	RejectNull         bool        `json:"reject_null"`
	Alpha              float64     `json:"alpha"`
	Method             Method      `json:"method"`
	Alternative        Alternative `json:"alternative"`
	DegreesOfFreedom   float64     `json:"degrees_of_freedom"`
	StandardError      float64     `json:"standard_error"`
	MeanA              float64     `json:"mean_a"`
	MeanB              float64     `json:"mean_b"`
	VarianceA          float64     `json:"variance_a"`
	VarianceB          float64     `json:"variance_b"`
	NA                 int         `json:"n_a"`
	NB                 int         `json:"n_b"`
	EffectSize         float64     `json:"effect_size"` // Cohen's d
	ConfidenceInterval Interval    `json:"confidence_interval"`
	Degenerate         bool        `json:"degenerate,omitempty"`
}

// MeanDifference returns MeanA - MeanB
func (r TestResult) MeanDifference() float64 {
	return r.MeanA - r.MeanB
}

// Decision renders the outcome of the test in words
func (r TestResult) Decision() string {
	if r.RejectNull {
		return "reject H0"
	}
	return "fail to reject H0"
}
