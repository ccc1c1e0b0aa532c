package orchestrator

import (
	"time"

	cfg "github.com/maastricht-university/emotion-ensemble/config"
	"github.com/maastricht-university/emotion-ensemble/ensemble"
	"github.com/maastricht-university/emotion-ensemble/recommend"
)

// Input is one thing to classify. Text models read Text; audio and video
// models read Data, with Filename passed through to the model server.
type Input struct {
	Modality cfg.Modality
	Text     string
	Filename string
	Data     []byte
}

type Result struct {
	ID         string                    `json:"id" yaml:"id"`
	Modality   cfg.Modality              `json:"modality" yaml:"modality"`
	CreatedAt  time.Time                 `json:"created_at" yaml:"created_at"`
	Decision   ensemble.Decision         `json:"decision" yaml:"decision"`
	Transcript string                    `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	Music      *recommend.Recommendation `json:"music,omitempty" yaml:"music,omitempty"`
}

// Predictions is the model -> label-or-error view of the decision.
func (r *Result) Predictions() map[string]string {
	out := make(map[string]string, len(r.Decision.PerModel))
	for _, m := range r.Decision.PerModel {
		if m.Failed() {
			out[m.ModelID] = m.Err
			continue
		}
		out[m.ModelID] = m.Label
	}
	return out
}
