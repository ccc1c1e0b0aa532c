package ensemble

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var labels = []string{"angry", "disgust", "fear", "happy", "neutral", "sad", "surprise"}

func drawResults(rt *rapid.T) ([]ModelResult, map[string]float64) {
	n := rapid.IntRange(0, 8).Draw(rt, "n")
	results := make([]ModelResult, n)
	weights := map[string]float64{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("model-%d", i)
		if rapid.Bool().Draw(rt, fmt.Sprintf("failed_%d", i)) {
			results[i] = ModelResult{ModelID: id, Err: "boom"}
		} else {
			results[i] = ModelResult{ModelID: id, Label: rapid.SampledFrom(labels).Draw(rt, fmt.Sprintf("label_%d", i))}
		}
		if rapid.Bool().Draw(rt, fmt.Sprintf("listed_%d", i)) {
			weights[id] = rapid.Float64Range(0, 2).Draw(rt, fmt.Sprintf("weight_%d", i))
		}
	}
	return results, weights
}

func TestProperty_Vote_FinalLabelComesFromVotes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		results, w := drawResults(rt)
		d := Vote(results, MustWeightTable(w))

		voted := map[string]bool{}
		for _, r := range results {
			if !r.Failed() {
				voted[r.Label] = true
			}
		}
		if len(voted) == 0 {
			assert.Nil(rt, d.FinalLabel)
			assert.Empty(rt, d.Tally)
			return
		}
		require.NotNil(rt, d.FinalLabel)
		assert.True(rt, voted[*d.FinalLabel])
		for _, v := range d.Tally {
			assert.LessOrEqual(rt, v, d.Tally[*d.FinalLabel])
		}
	})
}

func TestProperty_Vote_TallyConservesWeight(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		results, w := drawResults(rt)
		wt := MustWeightTable(w)
		d := Vote(results, wt)

		var want float64
		for _, r := range results {
			if !r.Failed() {
				want += wt.Weight(r.ModelID)
			}
		}
		assert.InDelta(rt, want, d.Tally.Total(), 1e-9)
	})
}

func TestProperty_Vote_WeightMonotonicity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		results, w := drawResults(rt)
		if len(results) == 0 || results[0].Failed() {
			return
		}
		target := results[0]
		before := Vote(results, MustWeightTable(w))

		boosted := make(map[string]float64, len(w))
		for k, v := range w {
			boosted[k] = v
		}
		boosted[target.ModelID] = MustWeightTable(w).Weight(target.ModelID) + rapid.Float64Range(0, 3).Draw(rt, "boost")
		after := Vote(results, MustWeightTable(boosted))

		rank := func(d Decision) int {
			r := 0
			for _, v := range d.Tally {
				if v > d.Tally[target.Label] {
					r++
				}
			}
			return r
		}
		assert.LessOrEqual(rt, rank(after), rank(before))
		// target.Label is voted first, so it wins every tie it is part of
		if *before.FinalLabel == target.Label {
			assert.Equal(rt, target.Label, *after.FinalLabel)
		}
	})
}
