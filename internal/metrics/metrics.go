// Package metrics provides the pure numeric primitives used by the
// evaluation strategies: error aggregates, correlation, and the bucketed
// consistency measure. All functions are stateless and never mutate inputs.
package metrics

import "math"

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the population variance, or 0 for an empty slice.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// RMSE returns the root mean squared error between predictions and truth.
// The slices must be the same length; callers enforce that contract.
func RMSE(predictions, truth []float64) float64 {
	if len(predictions) == 0 {
		return 0
	}
	sum := 0.0
	for i := range predictions {
		d := predictions[i] - truth[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(predictions)))
}

// MAE returns the mean absolute error between predictions and truth.
func MAE(predictions, truth []float64) float64 {
	if len(predictions) == 0 {
		return 0
	}
	sum := 0.0
	for i := range predictions {
		sum += math.Abs(predictions[i] - truth[i])
	}
	return sum / float64(len(predictions))
}

// Pearson returns the Pearson correlation coefficient between two series.
// When either series has zero variance the denominator is zero and the
// correlation is defined as 0, not NaN.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}
	meanX := Mean(x)
	meanY := Mean(y)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return 0
	}
	return cov / denom
}

// Consistency measures how stable predictions are for similar ground-truth
// values. Truth values are grouped into 0.1-wide buckets; for every bucket
// with at least two members the prediction variance is converted to
// max(0, 1-variance), and the bucket scores are averaged. With no qualifying
// bucket the result is 1: no evidence of inconsistency.
func Consistency(predictions, truth []float64) float64 {
	if len(predictions) == 0 || len(predictions) != len(truth) {
		return 1
	}

	buckets := make(map[int][]float64)
	for i, t := range truth {
		b := int(math.Floor(t * 10))
		if b > 9 {
			b = 9 // truth of exactly 1.0 lands in the top bucket
		}
		if b < 0 {
			b = 0
		}
		buckets[b] = append(buckets[b], predictions[i])
	}

	sum := 0.0
	count := 0
	for _, preds := range buckets {
		if len(preds) < 2 {
			continue
		}
		score := 1 - Variance(preds)
		if score < 0 {
			score = 0
		}
		sum += score
		count++
	}

	if count == 0 {
		return 1
	}
	return sum / float64(count)
}

// MaxAbs returns the largest absolute value, or 0 for an empty slice.
func MaxAbs(values []float64) float64 {
	max := 0.0
	for _, v := range values {
		if a := math.Abs(v); a > max {
			max = a
		}
	}
	return max
}

// MinAbs returns the smallest absolute value, or 0 for an empty slice.
func MinAbs(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := math.Abs(values[0])
	for _, v := range values[1:] {
		if a := math.Abs(v); a < min {
			min = a
		}
	}
	return min
}
