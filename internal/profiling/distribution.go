package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summary holds location and spread of a set of values
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Shape holds distribution shape markers
type Shape struct {
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
	IsNormal bool    `json:"is_normal"`
	NormalP  float64 `json:"normal_p"`
	Outliers int     `json:"outliers"`
}

// Distribution is the profile of one vector of values
type Distribution struct {
	Summary Summary `json:"summary"`
	Shape   Shape   `json:"shape"`
}

// minQuartileCount is the smallest sample with interpolated quartiles and outlier counts
const minQuartileCount = 4

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// AnalyzeDistribution summarizes data. NaN values must be removed by the caller.
func (da *DistributionAnalyzer) AnalyzeDistribution(data []float64) (Distribution, error) {
	d := Distribution{}

	summary, err := summarize(data)
	if err != nil {
		return d, err
	}
	d.Summary = summary

	d.Shape.Skewness = calculateSkewness(data, summary.Mean, summary.StdDev)
	d.Shape.Kurtosis = calculateKurtosis(data, summary.Mean, summary.StdDev)
	d.Shape.IsNormal, d.Shape.NormalP = testNormality(d.Shape.Skewness, d.Shape.Kurtosis, len(data))
	if len(data) >= minQuartileCount {
		d.Shape.Outliers = detectOutliers(data, summary.Q25, summary.Q75)
	}
	return d, nil
}

func summarize(data []float64) (Summary, error) {
	s := Summary{Count: len(data)}
	var err error

	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	// Interpolated quartiles need at least minQuartileCount values
	percentile := stats.Percentile
	if len(data) < minQuartileCount {
		percentile = stats.PercentileNearestRank
	}
	if s.Q25, err = percentile(data, 25); err != nil {
		return s, err
	}
	if s.Q75, err = percentile(data, 75); err != nil {
		return s, err
	}
	return s, nil
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
	correction := math.Sqrt(n*(n-1)) / (n - 2)
	return skewness * correction
}

// calculateKurtosis computes sample kurtosis (3 for a normal distribution)
func calculateKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return 3
	}

	n := float64(len(data))
	sumFourthDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumFourthDeviations += deviation * deviation * deviation * deviation
	}

	excessKurtosis := sumFourthDeviations/n - 3
	correction := (n - 1) / ((n - 2) * (n - 3))
	excessKurtosis = excessKurtosis*correction + 6/(n+1)
	return excessKurtosis + 3
}

// testNormality approximates a Jarque-Bera style test from skewness and kurtosis
func testNormality(skewness, kurtosis float64, n int) (isNormal bool, pValue float64) {
	if n < 3 {
		return false, 1.0
	}
	statistic := float64(n) / 6 * (skewness*skewness + (kurtosis-3)*(kurtosis-3)/4)
	pValue = 1 - distuv.ChiSquared{K: 2}.CDF(statistic)
	return pValue > 0.05, pValue
}

// detectOutliers counts values outside 1.5 IQR of the quartiles
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
