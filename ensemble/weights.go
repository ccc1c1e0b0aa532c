package ensemble

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// DefaultWeight is what a model contributes when it is absent from the table.
const DefaultWeight = 1.0

var ErrInvalidWeight = errors.New("ensemble: invalid model weight")

// WeightTable maps a model id to its vote multiplier. The zero value is
// usable and gives every model DefaultWeight.
type WeightTable struct {
	w map[string]float64
}

// NewWeightTable copies w and rejects negative, NaN or infinite entries.
func NewWeightTable(w map[string]float64) (WeightTable, error) {
	out := make(map[string]float64, len(w))
	for id, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return WeightTable{}, fmt.Errorf("%w: %s=%v", ErrInvalidWeight, id, v)
		}
		out[id] = v
	}
	return WeightTable{w: out}, nil
}

// MustWeightTable is NewWeightTable for literals in tests and defaults.
func MustWeightTable(w map[string]float64) WeightTable {
	t, err := NewWeightTable(w)
	if err != nil {
		panic(err)
	}
	return t
}

func (t WeightTable) Weight(modelID string) float64 {
	if v, ok := t.w[modelID]; ok {
		return v
	}
	return DefaultWeight
}

// Models returns the configured ids in sorted order.
func (t WeightTable) Models() []string {
	ids := make([]string, 0, len(t.w))
	for id := range t.w {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Map returns a copy of the explicit entries.
func (t WeightTable) Map() map[string]float64 {
	out := make(map[string]float64, len(t.w))
	for k, v := range t.w {
		out[k] = v
	}
	return out
}
