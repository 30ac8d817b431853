package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound1(t *testing.T) {
	assert.Equal(t, 0.0, Round1(0))
	assert.Equal(t, 33.3, Round1(33.333))
	assert.Equal(t, 66.7, Round1(66.666))
	assert.Equal(t, 50.0, Round1(50))
	// Half rounds away from zero.
	assert.Equal(t, 2.5, Round1(2.45))
	assert.Equal(t, -2.5, Round1(-2.45))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, percent(0, 0))
	assert.Equal(t, 0.0, percent(5, 0))
	assert.Equal(t, 50.0, percent(1, 2))
	assert.Equal(t, 33.3, percent(1, 3))
	assert.Equal(t, 100.0, percent(3, 3))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]int64{1, 2, 3}))
	assert.Equal(t, 1.7, Mean([]int64{1, 2, 2}))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, int64(0), Median(nil))
	assert.Equal(t, int64(5), Median([]int64{5}))
	assert.Equal(t, int64(2), Median([]int64{3, 1, 2}))
	// Even count averages the middle pair.
	assert.Equal(t, int64(15), Median([]int64{30, 10, 0, 20}))
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	in := []int64{3, 1, 2}
	Median(in)
	assert.Equal(t, []int64{3, 1, 2}, in)
}
