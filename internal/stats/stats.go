// Package stats holds the metric extractors: pure, total
// functions from event sequences to report shapes. No input
// produces a panic or error; empty input, missing payload
// fields, and zero denominators all yield a defined zero result.
package stats

import (
	"math"
	"sort"
)

// Round1 rounds half away from zero to one decimal place. Every
// rate and average in the reports goes through this one
// function so display rounding is platform-independent.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// percent returns part/total*100 rounded to one decimal, 0 when
// total is zero.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round1(float64(part) / float64(total) * 100)
}

// Mean returns the arithmetic mean rounded to one decimal, 0
// for an empty slice.
func Mean(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum int64
	for _, v := range values {
		sum += v
	}
	return Round1(float64(sum) / float64(len(values)))
}

// Median returns the median value, averaging the two middle
// elements for even counts. 0 for an empty slice.
func Median(values []int64) int64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
