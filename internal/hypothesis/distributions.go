package hypothesis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"hypotest/domain/stats"
)

// maxFiniteDF is the point past which the t distribution is treated as standard normal.
const maxFiniteDF = 1e10

// continuous is the part of a distuv distribution the tests need
type continuous interface {
	CDF(x float64) float64
	Survival(x float64) float64
	Quantile(p float64) float64
}

// tDistribution returns Student's t with df degrees of freedom,
// falling back to the unit normal once df is effectively infinite.
func tDistribution(df float64) continuous {
	if math.IsInf(df, 1) || df > maxFiniteDF {
		return distuv.UnitNormal
	}
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
}

// pValue computes the p-value of statistic t under the given alternative
func pValue(t, df float64, alternative stats.Alternative) float64 {
	dist := tDistribution(df)

	var p float64
	switch alternative {
	case stats.Less:
		p = dist.CDF(t)
	case stats.Greater:
		p = dist.Survival(t)
	default:
		// 2 * (1 - CDF(|t|)), via the survival function to keep precision in the tail
		p = 2 * dist.Survival(math.Abs(t))
	}
	return clampProbability(p)
}

// confidenceInterval returns the two-sided (1-alpha) interval for a difference with standard error se
func confidenceInterval(diff, se, df, alpha float64) stats.Interval {
	if se == 0 {
		return stats.Interval{Lower: diff, Upper: diff}
	}
	q := tDistribution(df).Quantile(1 - alpha/2)
	return stats.Interval{Lower: diff - q*se, Upper: diff + q*se}
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
