package strategies

import "math"

// rollingMean returns the simple moving average of the last period values at
// every index. Indices before the window is full hold NaN.
func rollingMean(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		sum += x
		if i >= period {
			sum -= xs[i-period]
		}
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}

// rollingStd is the sample standard deviation over the same window as
// rollingMean. It recomputes each window to avoid the drift of a running
// sum of squares.
func rollingStd(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i < period-1 || period < 2 {
			out[i] = math.NaN()
			continue
		}
		window := xs[i-period+1 : i+1]
		var mean float64
		for _, x := range window {
			mean += x
		}
		mean /= float64(period)
		var ss float64
		for _, x := range window {
			ss += (x - mean) * (x - mean)
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out
}
