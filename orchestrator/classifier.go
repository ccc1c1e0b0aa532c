package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/maastricht-university/emotion-ensemble/clients"
	cfg "github.com/maastricht-university/emotion-ensemble/config"
)

// Classifier labels one input. Errors are recorded against the model and
// never abort the ensemble.
type Classifier interface {
	ID() string
	Classify(ctx context.Context, in Input) (string, error)
}

// LanguageDetector names the language of a text, e.g. "English".
type LanguageDetector interface {
	Detect(text string) (string, bool)
}

type Transcriber interface {
	Transcribe(ctx context.Context, filename string, data []byte) (string, error)
}

var ErrUnsupportedLanguage = errors.New("unsupported language")

type remoteModel struct {
	id, url string
	http    *clients.HTTP
}

func (m *remoteModel) ID() string { return m.id }

func (m *remoteModel) Classify(ctx context.Context, in Input) (string, error) {
	if in.Modality == cfg.Text {
		return m.http.ClassifyText(ctx, m.url, in.Text)
	}
	return m.http.ClassifyFile(ctx, m.url, in.Filename, in.Data)
}

type llmModel struct {
	id string
	c  *clients.OpenAIClassifier
}

func (m *llmModel) ID() string { return m.id }

func (m *llmModel) Classify(ctx context.Context, in Input) (string, error) {
	return m.c.Classify(ctx, in.Text)
}

// minGateWords is the shortest text the language gate judges; detection on
// fewer words is too unreliable to refuse a vote on.
const minGateWords = 4

// languageGate keeps a text model from voting on a language it was not
// trained on. Short or ambiguous texts pass through.
type languageGate struct {
	next     Classifier
	detector LanguageDetector
	allowed  []string
}

func (g *languageGate) ID() string { return g.next.ID() }

func (g *languageGate) Classify(ctx context.Context, in Input) (string, error) {
	if len(strings.Fields(in.Text)) < minGateWords {
		return g.next.Classify(ctx, in)
	}
	lang, ok := g.detector.Detect(in.Text)
	if !ok {
		return g.next.Classify(ctx, in)
	}
	for _, a := range g.allowed {
		if strings.EqualFold(a, lang) {
			return g.next.Classify(ctx, in)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, strings.ToLower(lang))
}

type remoteASR struct {
	url  string
	http *clients.HTTP
}

func (a *remoteASR) Transcribe(ctx context.Context, filename string, data []byte) (string, error) {
	out, err := a.http.ASR(ctx, a.url, filename, data)
	if err != nil {
		return "", err
	}
	return out.Text(), nil
}

func (p *Pipeline) buildClassifiers() error {
	var llm *openai.Client
	if p.detector == nil {
		var langs []string
		for _, mc := range p.cfg.Models(cfg.Text) {
			langs = append(langs, mc.Languages...)
		}
		if len(langs) > 0 {
			p.detector = clients.NewLingua(langs...)
		}
	}
	for _, m := range cfg.Modalities {
		for _, mc := range p.cfg.Models(m) {
			var c Classifier
			switch mc.Kind {
			case cfg.KindOpenAI:
				if llm == nil {
					llm = clients.NewOpenAI(p.cfg.OpenAI.APIKey, p.cfg.OpenAI.BaseURL)
				}
				c = &llmModel{id: mc.ID, c: clients.NewOpenAIClassifier(llm, p.cfg.OpenAI.Model, p.cfg.OpenAI.Labels)}
			case "", cfg.KindHTTP:
				c = &remoteModel{id: mc.ID, url: strings.TrimRight(mc.URL, "/"), http: p.http}
			default:
				return fmt.Errorf("model %s: unknown kind %q", mc.ID, mc.Kind)
			}
			if len(mc.Languages) > 0 {
				c = &languageGate{next: c, detector: p.detector, allowed: mc.Languages}
			}
			p.models[m] = append(p.models[m], c)
		}
	}

	if p.transcriber != nil {
		return nil
	}
	switch {
	case p.cfg.Transcription.URL != "":
		p.transcriber = &remoteASR{url: strings.TrimRight(p.cfg.Transcription.URL, "/"), http: p.http}
	case p.cfg.OpenAI.APIKey != "":
		if llm == nil {
			llm = clients.NewOpenAI(p.cfg.OpenAI.APIKey, p.cfg.OpenAI.BaseURL)
		}
		p.transcriber = clients.NewOpenAITranscriber(llm, p.cfg.OpenAI.TranscribeModel)
	}
	return nil
}
