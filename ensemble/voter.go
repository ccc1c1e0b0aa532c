// Package ensemble combines labels from independent classifiers into one
// decision by weighted plurality vote.
package ensemble

// ModelResult is the outcome of one model's inference attempt. A non-empty
// Err means the model produced no vote.
type ModelResult struct {
	ModelID string `json:"model_id" yaml:"model_id"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Err     string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (r ModelResult) Failed() bool { return r.Err != "" }

// Failed builds an errored result for modelID.
func Failed(modelID string, err error) ModelResult {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return ModelResult{ModelID: modelID, Err: msg}
}

// VoteTally is the accumulated weight per label.
type VoteTally map[string]float64

// Total is the sum of all accumulated weights.
func (t VoteTally) Total() float64 {
	var sum float64
	for _, v := range t {
		sum += v
	}
	return sum
}

// Decision is the auditable outcome of one voting round. FinalLabel is nil
// when no model produced a usable label.
type Decision struct {
	FinalLabel *string       `json:"final_label" yaml:"final_label"`
	PerModel   []ModelResult `json:"per_model" yaml:"per_model"`
	Tally      VoteTally     `json:"tally" yaml:"tally"`
}

// Decided reports whether a final label was reached.
func (d Decision) Decided() bool { return d.FinalLabel != nil }

// Label returns the final label, or fallback when undetermined.
func (d Decision) Label(fallback string) string {
	if d.FinalLabel == nil {
		return fallback
	}
	return *d.FinalLabel
}

// Contributing returns the number of results that voted.
func (d Decision) Contributing() int {
	n := 0
	for _, r := range d.PerModel {
		if !r.Failed() {
			n++
		}
	}
	return n
}

// Vote tallies the weight of every non-failed result per label and picks
// the label with the greatest weight. Ties go to the label that was voted
// for first in input order. It never fails: errored results only reduce
// the number of votes.
func Vote(results []ModelResult, weights WeightTable) Decision {
	perModel := make([]ModelResult, len(results))
	copy(perModel, results)

	tally := VoteTally{}
	var order []string
	for _, r := range results {
		if r.Failed() {
			continue
		}
		if _, seen := tally[r.Label]; !seen {
			order = append(order, r.Label)
		}
		tally[r.Label] += weights.Weight(r.ModelID)
	}

	d := Decision{PerModel: perModel, Tally: tally}
	if len(order) == 0 {
		return d
	}
	best := order[0]
	for _, label := range order[1:] {
		if tally[label] > tally[best] {
			best = label
		}
	}
	d.FinalLabel = &best
	return d
}
