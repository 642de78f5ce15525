package bench

import "math"

// Mean returns the arithmetic mean of values; zero for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stddev returns the population standard deviation, or nil when fewer
// than two samples are available.
func Stddev(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	sd := math.Sqrt(sum / float64(len(values)))
	return &sd
}
