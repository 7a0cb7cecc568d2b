package elo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 0.01

func TestDefault(t *testing.T) {
	r := Default()
	assert.Equal(t, DefaultRating, r.Value)
	assert.Equal(t, uint32(0), r.Wins)
	assert.Equal(t, uint32(0), r.Losses)
}

func TestNewRater(t *testing.T) {
	t.Run("positive k-factor kept as-is", func(t *testing.T) {
		r := NewRater(16)
		assert.Equal(t, 16.0, r.K)
	})

	t.Run("non-positive k-factor falls back to default", func(t *testing.T) {
		assert.Equal(t, DefaultKFactor, NewRater(0).K)
		assert.Equal(t, DefaultKFactor, NewRater(-5).K)
	})
}

// TestUpdate_MinimalTournament matches spec.md §8 scenario 1: equal ratings,
// Left verdict, K=32.
func TestUpdate_MinimalTournament(t *testing.T) {
	rater := NewRater(DefaultKFactor)
	left, right := Default(), Default()

	newLeft, newRight := rater.Update(left, right, Left)

	assert.InDelta(t, 1516.0, newLeft.Value, tolerance)
	assert.InDelta(t, 1484.0, newRight.Value, tolerance)
	assert.Equal(t, uint32(1), newLeft.Wins)
	assert.Equal(t, uint32(0), newLeft.Losses)
	assert.Equal(t, uint32(1), newRight.Losses)
	assert.Equal(t, uint32(0), newRight.Wins)
}

// TestUpdate_BothVerdict matches spec.md §8 scenario 2.
func TestUpdate_BothVerdict(t *testing.T) {
	rater := NewRater(DefaultKFactor)
	left := Rating{Value: 1600}
	right := Rating{Value: 1400}

	newLeft, newRight := rater.Update(left, right, Both)

	assert.InDelta(t, 1591.69, newLeft.Value, 0.1)
	assert.InDelta(t, 1408.31, newRight.Value, 0.1)
	assert.Equal(t, uint32(0), newLeft.Wins)
	assert.Equal(t, uint32(0), newLeft.Losses)
	assert.Equal(t, uint32(0), newRight.Wins)
	assert.Equal(t, uint32(0), newRight.Losses)
}

func TestUpdate_NeitherBehavesLikeBoth(t *testing.T) {
	rater := NewRater(DefaultKFactor)
	left := Rating{Value: 1600}
	right := Rating{Value: 1400}

	bothLeft, bothRight := rater.Update(left, right, Both)
	neitherLeft, neitherRight := rater.Update(left, right, Neither)

	assert.Equal(t, bothLeft, neitherLeft)
	assert.Equal(t, bothRight, neitherRight)
}

func TestUpdate_RightVerdictIsMirrorOfLeft(t *testing.T) {
	rater := NewRater(DefaultKFactor)
	left := Rating{Value: 1550}
	right := Rating{Value: 1450}

	leftAfter, rightAfter := rater.Update(left, right, Right)

	// Mirror: swap the inputs under Left and the outputs should swap too.
	mirrorRight, mirrorLeft := rater.Update(right, left, Left)

	assert.InDelta(t, mirrorLeft.Value, leftAfter.Value, tolerance)
	assert.InDelta(t, mirrorRight.Value, rightAfter.Value, tolerance)
	assert.Equal(t, uint32(1), rightAfter.Wins)
	assert.Equal(t, uint32(1), leftAfter.Losses)
}

func TestUpdate_ZeroSum(t *testing.T) {
	rater := NewRater(DefaultKFactor)
	for _, outcome := range []Outcome{Left, Right, Both, Neither} {
		left := Rating{Value: 1720}
		right := Rating{Value: 1310}
		newLeft, newRight := rater.Update(left, right, outcome)

		deltaLeft := newLeft.Value - left.Value
		deltaRight := newRight.Value - right.Value
		assert.InDelta(t, 0, deltaLeft+deltaRight, tolerance, "outcome %v should be zero-sum", outcome)
	}
}

func TestUpdate_NaNInputsClampToDefault(t *testing.T) {
	rater := NewRater(DefaultKFactor)
	left := Rating{Value: math.NaN()}
	right := Rating{Value: math.Inf(1)}

	newLeft, newRight := rater.Update(left, right, Both)

	require.False(t, math.IsNaN(newLeft.Value))
	require.False(t, math.IsInf(newRight.Value, 0))
	// Both inputs clamped to DefaultRating, so this is just an equal-strength draw.
	assert.InDelta(t, DefaultRating, newLeft.Value, tolerance)
	assert.InDelta(t, DefaultRating, newRight.Value, tolerance)
}

func TestOutcomeString(t *testing.T) {
	cases := map[Outcome]string{
		Left:       "left",
		Right:      "right",
		Both:       "both",
		Neither:    "neither",
		Outcome(9): "unknown",
	}
	for outcome, want := range cases {
		assert.Equal(t, want, outcome.String())
	}
}
