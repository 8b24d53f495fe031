package profiling

import (
	"math"

	"github.com/montanaflynn/stats"

	"hypotest/internal/errors"
)

// Summary holds descriptive statistics for one numeric sample
type Summary struct {
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"` // unbiased, n-1
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Q25      float64 `json:"q25"`
	Median   float64 `json:"median"`
	Q75      float64 `json:"q75"`
	Max      float64 `json:"max"`
	Skewness float64 `json:"skewness"`
	Outliers int     `json:"outliers"` // outside 1.5*IQR
}

// Describe computes summary statistics for data.
// Single-value samples get zero variance rather than an error.
func Describe(data []float64) (Summary, error) {
	summary := Summary{N: len(data)}
	if len(data) == 0 {
		return summary, errors.InvalidSample("cannot describe an empty sample")
	}

	var err error
	if summary.Mean, err = stats.Mean(data); err != nil {
		return summary, errors.Wrap(err, "mean")
	}
	if summary.Min, err = stats.Min(data); err != nil {
		return summary, errors.Wrap(err, "min")
	}
	if summary.Max, err = stats.Max(data); err != nil {
		return summary, errors.Wrap(err, "max")
	}
	if summary.Median, err = stats.Median(data); err != nil {
		return summary, errors.Wrap(err, "median")
	}

	// Quartiles for IQR-based outlier detection
	if summary.Q25, err = stats.PercentileNearestRank(data, 25); err != nil {
		return summary, errors.Wrap(err, "25th percentile")
	}
	if summary.Q75, err = stats.PercentileNearestRank(data, 75); err != nil {
		return summary, errors.Wrap(err, "75th percentile")
	}

	if len(data) > 1 {
		if summary.Variance, err = stats.SampleVariance(data); err != nil {
			return summary, errors.Wrap(err, "variance")
		}
		summary.StdDev = math.Sqrt(summary.Variance)
	}

	summary.Skewness = calculateSkewness(data, summary.Mean, summary.StdDev)
	summary.Outliers = detectOutliers(data, summary.Q25, summary.Q75)

	return summary, nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0

	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n

	// Bias correction for sample skewness
	correction := math.Sqrt(n*(n-1)) / (n - 2)
	return skewness * correction
}

// detectOutliers counts values outside the Tukey fences
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}

	return outlierCount
}
