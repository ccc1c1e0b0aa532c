package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/emotion-ensemble/clients"
	cfg "github.com/maastricht-university/emotion-ensemble/config"
	"github.com/maastricht-university/emotion-ensemble/ensemble"
	"github.com/maastricht-university/emotion-ensemble/metrics"
	"github.com/maastricht-university/emotion-ensemble/recommend"
)

var (
	ErrEmptyInput      = errors.New("empty input")
	ErrNoModels        = errors.New("no models configured")
	ErrNoTranscriber   = errors.New("no transcription service configured")
	ErrEmptyTranscript = errors.New("transcript is empty")
)

type Pipeline struct {
	cfg         *cfg.Root
	http        *clients.HTTP
	log         logrus.FieldLogger
	metrics     *metrics.Collector
	detector    LanguageDetector
	transcriber Transcriber
	models      map[cfg.Modality][]Classifier
	overrides   map[cfg.Modality][]Classifier
	now         func() time.Time
}

type Option func(*Pipeline)

func WithLogger(l logrus.FieldLogger) Option        { return func(p *Pipeline) { p.log = l } }
func WithMetrics(m *metrics.Collector) Option        { return func(p *Pipeline) { p.metrics = m } }
func WithHTTP(h *clients.HTTP) Option                { return func(p *Pipeline) { p.http = h } }
func WithLanguageDetector(d LanguageDetector) Option { return func(p *Pipeline) { p.detector = d } }
func WithTranscriber(t Transcriber) Option           { return func(p *Pipeline) { p.transcriber = t } }

// WithClassifiers replaces the configured models of one modality.
func WithClassifiers(m cfg.Modality, cs ...Classifier) Option {
	return func(p *Pipeline) { p.overrides[m] = cs }
}

func NewPipeline(c *cfg.Root, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		cfg:       c,
		http:      clients.NewHTTP(),
		log:       logrus.StandardLogger(),
		models:    map[cfg.Modality][]Classifier{},
		overrides: map[cfg.Modality][]Classifier{},
		now:       time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	if err := p.buildClassifiers(); err != nil {
		return nil, err
	}
	for m, cs := range p.overrides {
		p.models[m] = cs
	}
	if p.metrics == nil {
		p.metrics = metrics.NewCollector(nil)
	}
	return p, nil
}

// Predict runs every model configured for in.Modality and votes on their
// labels. Model failures are part of the result; only a malformed request
// returns an error.
func (p *Pipeline) Predict(ctx context.Context, in Input) (*Result, error) {
	models, ok := p.models[in.Modality]
	if !ok || len(models) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoModels, in.Modality)
	}
	if in.Modality == cfg.Text {
		in.Text = strings.TrimSpace(in.Text)
		if in.Text == "" {
			return nil, fmt.Errorf("%w: no sentence", ErrEmptyInput)
		}
	} else if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: no %s data", ErrEmptyInput, in.Modality)
	}

	d := ensemble.Vote(p.runModels(ctx, models, in), p.cfg.Weights(in.Modality))
	p.metrics.RecordVote(string(in.Modality), d.Decided())

	res := &Result{
		ID:        uuid.NewString(),
		Modality:  in.Modality,
		CreatedAt: p.now(),
		Decision:  d,
	}
	if d.Decided() {
		if m, ok := recommend.ForEmotion(*d.FinalLabel); ok {
			res.Music = &m
		}
	}

	log := p.log.WithFields(logrus.Fields{
		"id":       res.ID,
		"modality": in.Modality,
		"votes":    d.Contributing(),
		"models":   len(d.PerModel),
	})
	if d.Decided() {
		log.WithField("label", *d.FinalLabel).Info("ensemble decided")
	} else {
		log.Warn("ensemble undetermined: no model produced a label")
	}
	return res, nil
}

// PredictSpeech transcribes an audio clip and votes with the text models on
// the transcript.
func (p *Pipeline) PredictSpeech(ctx context.Context, filename string, data []byte) (*Result, error) {
	if p.transcriber == nil {
		return nil, ErrNoTranscriber
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no audio data", ErrEmptyInput)
	}
	text, err := p.transcriber.Transcribe(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", filename, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyTranscript
	}
	res, err := p.Predict(ctx, Input{Modality: cfg.Text, Text: text})
	if err != nil {
		return nil, err
	}
	res.Transcript = text
	return res, nil
}

// Record persists res under paths.outputs when configured. Failures are
// logged only.
func (p *Pipeline) Record(res *Result) string {
	if p.cfg.Paths.Outputs == "" {
		return ""
	}
	path, err := persist(p.cfg.Paths.Outputs, res)
	if err != nil {
		p.log.WithError(err).WithField("id", res.ID).Error("persist decision")
		return ""
	}
	return path
}
