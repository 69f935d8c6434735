package fixed

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

func StdDev(points []Point, mean Point) Point {
	if len(points) <= 1 {
		return Zero
	}

	sum := Zero
	for _, point := range points {
		diff := point.Sub(mean)
		sum = sum.Add(diff.Mul(diff))
	}

	return sum.DivInt(len(points)).Sqrt()
}

func SampleStdDev(points []Point, mean Point) Point {
	if len(points) <= 1 {
		return Zero
	}

	sum := Zero
	for _, point := range points {
		diff := point.Sub(mean)
		sum = sum.Add(diff.Mul(diff))
	}

	return sum.DivInt(len(points) - 1).Sqrt()
}

func DownsideDev(points []Point, riskFreeRate Point) Point {
	sum := Zero
	count := 0
	for _, point := range points {
		if point.Lt(riskFreeRate) {
			diff := point.Sub(riskFreeRate)
			sum = sum.Add(diff.Mul(diff))
			count++
		}
	}

	if count <= 1 {
		return Zero
	}

	return sum.DivInt(count).Sqrt()
}

// SharpeRatio returns the per-sample Sharpe ratio and false when the return
// series has zero variance, in which case the ratio is undefined.
func SharpeRatio(points []Point, riskFreeRate Point) (Point, bool) {
	if len(points) == 0 {
		return Zero, false
	}

	mean := Mean(points)
	volatility := StdDev(points, mean)

	if volatility.IsZero() {
		return Zero, false
	}

	return mean.Sub(riskFreeRate).Div(volatility), true
}

// SortinoRatio returns false when no sample falls below the risk free rate,
// in which case downside deviation is undefined.
func SortinoRatio(points []Point, riskFreeRate Point) (Point, bool) {
	if len(points) == 0 {
		return Zero, false
	}

	mean := Mean(points)
	downsideDeviation := DownsideDev(points, riskFreeRate)

	if downsideDeviation.IsZero() {
		return Zero, false
	}

	return mean.Sub(riskFreeRate).Div(downsideDeviation), true
}
