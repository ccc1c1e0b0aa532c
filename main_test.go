package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	cfg "github.com/maastricht-university/emotion-ensemble/config"
	"github.com/maastricht-university/emotion-ensemble/ensemble"
	"github.com/maastricht-university/emotion-ensemble/orchestrator"
	"github.com/maastricht-university/emotion-ensemble/recommend"
)

func result(results ...ensemble.ModelResult) *orchestrator.Result {
	d := ensemble.Vote(results, ensemble.MustWeightTable(map[string]float64{"cnn": 0.35, "rnn": 0.2}))
	res := &orchestrator.Result{ID: "r1", Modality: cfg.Text, Decision: d}
	if d.Decided() {
		if m, ok := recommend.ForEmotion(*d.FinalLabel); ok {
			res.Music = &m
		}
	}
	return res
}

func TestRender_Text(t *testing.T) {
	var b bytes.Buffer
	res := result(
		ensemble.ModelResult{ModelID: "cnn", Label: "sad"},
		ensemble.ModelResult{ModelID: "rnn", Err: "Prediction error: boom"},
	)
	require.NoError(t, render(&b, res, "text"))

	out := b.String()
	assert.Contains(t, out, " - cnn: sad\n")
	assert.Contains(t, out, " - rnn: error: Prediction error: boom\n")
	assert.Contains(t, out, "Final Ensemble Prediction: sad\n")
	assert.Contains(t, out, "Mellow, introspective songs")
}

func TestRender_Undetermined(t *testing.T) {
	var b bytes.Buffer
	res := result(ensemble.ModelResult{ModelID: "cnn", Err: "Preprocessing failed"})
	require.NoError(t, render(&b, res, ""))
	assert.Contains(t, b.String(), "Final Ensemble Prediction: Unable to determine\n")
	assert.NotContains(t, b.String(), "Music:")
}

func TestRender_Structured(t *testing.T) {
	res := result(ensemble.ModelResult{ModelID: "cnn", Label: "happy"})

	var b bytes.Buffer
	require.NoError(t, render(&b, res, "json"))
	var j map[string]any
	require.NoError(t, json.Unmarshal(b.Bytes(), &j))
	assert.Equal(t, "happy", j["decision"].(map[string]any)["final_label"])

	b.Reset()
	require.NoError(t, render(&b, res, "yaml"))
	var y map[string]any
	require.NoError(t, yaml.Unmarshal(b.Bytes(), &y))
	assert.Equal(t, "happy", y["decision"].(map[string]any)["final_label"])

	assert.Error(t, render(&b, res, "xml"))
}
