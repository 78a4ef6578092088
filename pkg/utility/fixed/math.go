package fixed

// Mean, StdDev, SharpeRatio and SortinoRatio are the statistics
// Audit.GenerateReport computes over a run's daily equity returns for its
// volatility and risk-adjusted-return figures.

// Mean returns the arithmetic mean of points, or Zero for an empty series.
func Mean(points []Point) Point {
	if len(points) == 0 {
		return Zero
	}
	sum := Zero
	for _, point := range points {
		sum = sum.Add(point)
	}
	return sum.DivInt(len(points))
}

// sumSquaredDev sums (point - center)^2 over points, optionally restricted
// to points below threshold (downside variants pass Lt; the full-population
// variants pass a predicate that always matches). It also returns how many
// points contributed, since the population/sample divisor differs by caller.
func sumSquaredDev(points []Point, center Point, include func(Point) bool) (sum Point, count int) {
	sum = Zero
	for _, point := range points {
		if !include(point) {
			continue
		}
		diff := point.Sub(center)
		sum = sum.Add(diff.Mul(diff))
		count++
	}
	return sum, count
}

func always(Point) bool { return true }

// DownsideDev is the population standard deviation of the returns that fell
// below riskFreeRate, the denominator of SortinoRatio.
func DownsideDev(points []Point, riskFreeRate Point) Point {
	sum, count := sumSquaredDev(points, riskFreeRate, func(p Point) bool { return p.Lt(riskFreeRate) })
	if count <= 1 {
		return Zero
	}
	return sum.DivInt(count).Sqrt()
}

// SampleDownsideDev is DownsideDev with Bessel's correction (n-1 divisor).
func SampleDownsideDev(points []Point, riskFreeRate Point) Point {
	sum, count := sumSquaredDev(points, riskFreeRate, func(p Point) bool { return p.Lt(riskFreeRate) })
	if count <= 1 {
		return Zero
	}
	return sum.DivInt(count - 1).Sqrt()
}

// StdDev is the population standard deviation of points around mean.
func StdDev(points []Point, mean Point) Point {
	if len(points) <= 1 {
		return Zero
	}
	sum, _ := sumSquaredDev(points, mean, always)
	return sum.DivInt(len(points)).Sqrt()
}

// SampleStdDev is StdDev with Bessel's correction (n-1 divisor).
func SampleStdDev(points []Point, mean Point) Point {
	if len(points) <= 1 {
		return Zero
	}
	sum, _ := sumSquaredDev(points, mean, always)
	return sum.DivInt(len(points) - 1).Sqrt()
}

// Variance is StdDev without the final square root.
func Variance(points []Point, mean Point) Point {
	if len(points) <= 1 {
		return Zero
	}
	sum, _ := sumSquaredDev(points, mean, always)
	return sum.DivInt(len(points))
}

// SampleVariance is Variance with Bessel's correction (n-1 divisor).
func SampleVariance(points []Point, mean Point) Point {
	if len(points) <= 1 {
		return Zero
	}
	sum, _ := sumSquaredDev(points, mean, always)
	return sum.DivInt(len(points) - 1)
}

// SharpeRatio is the mean excess return over riskFreeRate, scaled by the
// population standard deviation of returns. It returns Zero when the
// series has no volatility to divide by, rather than panicking on a
// divide-by-zero from a single-trade or flat-equity run.
func SharpeRatio(points []Point, riskFreeRate Point) Point {
	if len(points) == 0 {
		return Zero
	}

	mean := Mean(points)
	volatility := StdDev(points, mean)

	if volatility.IsZero() {
		return Zero
	}

	return mean.Sub(riskFreeRate).Div(volatility)
}

// SortinoRatio is SharpeRatio scaled by downside deviation instead of total
// deviation, so upside volatility doesn't penalize a run's score.
func SortinoRatio(points []Point, riskFreeRate Point) Point {
	if len(points) == 0 {
		return Zero
	}

	mean := Mean(points)
	downsideDeviation := DownsideDev(points, riskFreeRate)

	if downsideDeviation.IsZero() {
		return Zero
	}

	return mean.Sub(riskFreeRate).Div(downsideDeviation)
}
