package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/emotion-ensemble/ensemble"
)

const sample = `
pipeline:
  log_level: debug
  model_timeout: 5s
paths:
  outputs: out
openai:
  api_key: sk-test
modalities:
  text:
    models:
      - {id: cnn, url: "http://localhost:5102", weight: 0.35, languages: [english]}
      - {id: cnn_with_resnet, url: "http://localhost:5103", weight: 0.35}
      - {id: crnn, url: "http://localhost:5104", weight: 0.1}
      - {id: llm, kind: openai}
  audio:
    models:
      - {id: cnn_CREMA_D, url: "http://localhost:5201", weight: 0.25}
      - {id: lstm, url: "http://localhost:5202", weight: 0.25}
`

func TestParse(t *testing.T) {
	cfg, err := Parse(sample)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Pipeline.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.ModelTimeout)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, "out", cfg.Paths.Outputs)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Len(t, cfg.OpenAI.Labels, 7)

	models := cfg.Models(Audio)
	require.Len(t, models, 2)
	assert.Equal(t, "cnn_CREMA_D", models[0].ID, "model ids keep their case")

	text := cfg.Weights(Text)
	assert.Equal(t, 0.35, text.Weight("cnn"))
	assert.Equal(t, 0.1, text.Weight("crnn"))
	assert.Equal(t, ensemble.DefaultWeight, text.Weight("llm"))
	assert.Equal(t, []string{"english"}, cfg.Models(Text)[0].Languages)

	assert.Equal(t, 0.25, cfg.Weights(Audio).Weight("cnn_CREMA_D"))
	assert.Empty(t, cfg.Models(Video))
}

func TestParse_RejectsInvalidWeight(t *testing.T) {
	for _, w := range []string{"-0.3", ".nan", ".inf", "-.inf"} {
		_, err := Parse(`
modalities:
  video:
    models:
      - {id: resnet_model, url: "http://x", weight: ` + w + `}
`)
		require.Error(t, err, w)
		assert.ErrorIs(t, err, ensemble.ErrInvalidWeight, w)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want error
	}{
		"no modalities": {doc: `pipeline: {name: x}`, want: ErrNoModels},
		"unknown modality": {doc: `
modalities:
  smell:
    models: [{id: a, url: "http://x"}]`, want: ErrUnknownModality},
		"empty model list": {doc: `
modalities:
  text:
    models: []`, want: ErrNoModels},
		"missing url": {doc: `
modalities:
  text:
    models: [{id: a}]`, want: ErrInvalidModel},
		"duplicate id": {doc: `
modalities:
  text:
    models: [{id: a, url: "http://x"}, {id: a, url: "http://y"}]`, want: ErrInvalidModel},
		"openai without key": {doc: `
modalities:
  text:
    models: [{id: llm, kind: openai}]`, want: ErrInvalidModel},
		"openai on audio": {doc: `
openai: {api_key: k}
modalities:
  audio:
    models: [{id: llm, kind: openai}]`, want: ErrInvalidModel},
		"languages on video": {doc: `
modalities:
  video:
    models: [{id: a, url: "http://x", languages: [english]}]`, want: ErrInvalidModel},
		"unknown kind": {doc: `
modalities:
  text:
    models: [{id: a, kind: grpc}]`, want: ErrInvalidModel},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.doc)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	t.Setenv("EMOTION_SERVER_ADDR", ":7777")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
}

func TestLoad_APIKeyFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
modalities:
  text:
    models: [{id: llm, kind: openai}]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
}

func TestParseModality(t *testing.T) {
	m, err := ParseModality("Audio")
	require.NoError(t, err)
	assert.Equal(t, Audio, m)

	_, err = ParseModality("smell")
	assert.ErrorIs(t, err, ErrUnknownModality)
}

func TestLoad_ShippedDevConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("dev", "config.yaml"))
	require.NoError(t, err)
	for _, m := range Modalities {
		assert.NotEmpty(t, cfg.Models(m), m)
	}
	assert.Equal(t, 0.5, cfg.Weights(Video).Weight("mobilenet_model"))
	assert.Equal(t, 0.2, cfg.Weights(Text).Weight("rnn"))
}
