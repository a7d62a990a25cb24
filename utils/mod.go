package utils

import "math"

func FindIndex[T comparable](slice []T, item T) int {
	for i, v := range slice {
		if v == item {
			return i
		}
	}
	return -1
}

// MaxIndices appends to dst the indices of values within epsilon of the
// largest one, skipping NaN entries.
func MaxIndices(dst []int, values []float64, epsilon float64) []int {
	best := math.Inf(-1)
	for _, v := range values {
		if v > best {
			best = v
		}
	}
	for i, v := range values {
		if !math.IsNaN(v) && !math.IsInf(best, -1) && v >= best-epsilon {
			dst = append(dst, i)
		}
	}
	return dst
}
