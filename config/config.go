package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/maastricht-university/emotion-ensemble/ensemble"
)

type Modality string

const (
	Text  Modality = "text"
	Audio Modality = "audio"
	Video Modality = "video"
)

var Modalities = []Modality{Text, Audio, Video}

func ParseModality(s string) (Modality, error) {
	for _, m := range Modalities {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModality, s)
}

var (
	ErrUnknownModality = errors.New("config: unknown modality")
	ErrNoModels        = errors.New("config: no models configured")
	ErrInvalidModel    = errors.New("config: invalid model")
)

// Model kinds.
const (
	KindHTTP   = "http"
	KindOpenAI = "openai"
)

type Model struct {
	ID        string   `mapstructure:"id" yaml:"id"`
	Kind      string   `mapstructure:"kind" yaml:"kind,omitempty"`
	URL       string   `mapstructure:"url" yaml:"url,omitempty"`
	Weight    *float64 `mapstructure:"weight" yaml:"weight,omitempty"`
	Languages []string `mapstructure:"languages" yaml:"languages,omitempty"`
}

type ModalityConfig struct {
	Models []Model `mapstructure:"models" yaml:"models"`
}

type Pipeline struct {
	Name         string        `mapstructure:"name"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFormat    string        `mapstructure:"log_format"`
	ModelTimeout time.Duration `mapstructure:"model_timeout"`
}

type Server struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadMB    int64    `mapstructure:"max_upload_mb"`
}

type OpenAI struct {
	APIKey          string   `mapstructure:"api_key"`
	BaseURL         string   `mapstructure:"base_url"`
	Model           string   `mapstructure:"model"`
	TranscribeModel string   `mapstructure:"transcribe_model"`
	Labels          []string `mapstructure:"labels"`
}

type Root struct {
	Pipeline Pipeline `mapstructure:"pipeline"`
	Server   Server   `mapstructure:"server"`
	Paths    struct {
		Outputs string `mapstructure:"outputs"`
	} `mapstructure:"paths"`
	OpenAI        OpenAI `mapstructure:"openai"`
	Transcription struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"transcription"`
	Modalities map[string]ModalityConfig `mapstructure:"modalities"`

	weights map[Modality]ensemble.WeightTable
}

// Weights returns the validated table for m. Unknown modalities get the
// zero table, where every model weighs ensemble.DefaultWeight.
func (r *Root) Weights(m Modality) ensemble.WeightTable {
	return r.weights[m]
}

func (r *Root) Models(m Modality) []Model {
	return r.Modalities[string(m)].Models
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "emotion-ensemble")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("pipeline.log_format", "text")
	v.SetDefault("pipeline.model_timeout", "30s")
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_upload_mb", 64)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.transcribe_model", "whisper-1")
	v.SetDefault("openai.labels", []string{"angry", "disgust", "fear", "happy", "neutral", "sad", "surprise"})
}

// Load reads path, or when empty searches config/<CONFIG_ENV>/config.yaml
// and ./config.yaml. A .env file in the working directory is loaded first;
// EMOTION_* variables override file values.
func Load(path string) (*Root, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("EMOTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("openai.api_key", "EMOTION_OPENAI_API_KEY", "OPENAI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join("config", env))
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}
	return decode(v)
}

// Parse builds a config from an in-memory YAML document.
func Parse(doc string) (*Root, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Root, error) {
	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *Root) validate() error {
	if len(r.Modalities) == 0 {
		return ErrNoModels
	}
	if r.Pipeline.ModelTimeout <= 0 {
		return fmt.Errorf("config: pipeline.model_timeout must be positive, got %s", r.Pipeline.ModelTimeout)
	}
	r.weights = make(map[Modality]ensemble.WeightTable, len(r.Modalities))
	for name, mc := range r.Modalities {
		m, err := ParseModality(name)
		if err != nil {
			return err
		}
		if len(mc.Models) == 0 {
			return fmt.Errorf("%w for %s", ErrNoModels, m)
		}
		w := map[string]float64{}
		seen := map[string]bool{}
		for i, model := range mc.Models {
			if model.ID == "" {
				return fmt.Errorf("%w: %s model #%d has no id", ErrInvalidModel, m, i)
			}
			if seen[model.ID] {
				return fmt.Errorf("%w: duplicate %s model %q", ErrInvalidModel, m, model.ID)
			}
			seen[model.ID] = true
			if err := r.checkModel(m, model); err != nil {
				return err
			}
			if model.Weight != nil {
				w[model.ID] = *model.Weight
			}
		}
		table, err := ensemble.NewWeightTable(w)
		if err != nil {
			return fmt.Errorf("config: %s weights: %w", m, err)
		}
		r.weights[m] = table
	}
	return nil
}

func (r *Root) checkModel(m Modality, model Model) error {
	switch model.Kind {
	case "", KindHTTP:
		if model.URL == "" {
			return fmt.Errorf("%w: %s model %q has no url", ErrInvalidModel, m, model.ID)
		}
	case KindOpenAI:
		if m != Text {
			return fmt.Errorf("%w: %s model %q: openai models only classify text", ErrInvalidModel, m, model.ID)
		}
		if r.OpenAI.APIKey == "" {
			return fmt.Errorf("%w: %s model %q needs OPENAI_API_KEY", ErrInvalidModel, m, model.ID)
		}
	default:
		return fmt.Errorf("%w: %s model %q has unknown kind %q", ErrInvalidModel, m, model.ID, model.Kind)
	}
	if len(model.Languages) > 0 && m != Text {
		return fmt.Errorf("%w: %s model %q: languages only apply to text", ErrInvalidModel, m, model.ID)
	}
	return nil
}
