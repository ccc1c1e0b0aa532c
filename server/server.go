// Package server exposes the ensemble pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	cfg "github.com/maastricht-university/emotion-ensemble/config"
	"github.com/maastricht-university/emotion-ensemble/ensemble"
	"github.com/maastricht-university/emotion-ensemble/orchestrator"
	"github.com/maastricht-university/emotion-ensemble/recommend"
)

// Predictor is the part of the pipeline the handlers need.
type Predictor interface {
	Predict(ctx context.Context, in orchestrator.Input) (*orchestrator.Result, error)
	PredictSpeech(ctx context.Context, filename string, data []byte) (*orchestrator.Result, error)
	Record(res *orchestrator.Result) string
}

type Server struct {
	p        Predictor
	log      logrus.FieldLogger
	origins  map[string]bool
	maxBytes int64
	gatherer prometheus.Gatherer
}

func New(p Predictor, c cfg.Server, log logrus.FieldLogger, g prometheus.Gatherer) *Server {
	s := &Server{p: p, log: log, origins: map[string]bool{}, maxBytes: c.MaxUploadMB << 20, gatherer: g}
	for _, o := range c.AllowedOrigins {
		s.origins[o] = true
	}
	if s.maxBytes <= 0 {
		s.maxBytes = 64 << 20
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Server is running")
	})
	mux.HandleFunc("POST /predict/text", s.predictText)
	mux.HandleFunc("POST /predict/audio", s.predictFile(cfg.Audio, "audio"))
	mux.HandleFunc("POST /predict/video", s.predictFile(cfg.Video, "video"))
	mux.HandleFunc("POST /predict/speech", s.predictSpeech)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return s.cors(mux)
}

// ListenAndServe runs until ctx is cancelled, then drains for up to 10s.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if o := r.Header.Get("Origin"); o != "" && s.origins[o] {
			w.Header().Set("Access-Control-Allow-Origin", o)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type textReq struct {
	Sentence *string `json:"sentence"`
}

func (s *Server) predictText(w http.ResponseWriter, r *http.Request) {
	var req textReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBytes)).Decode(&req); err != nil || req.Sentence == nil {
		writeError(w, http.StatusBadRequest, "Missing 'sentence' in request body")
		return
	}
	s.respond(w, r)(s.p.Predict(r.Context(), orchestrator.Input{Modality: cfg.Text, Text: *req.Sentence}))
}

func (s *Server) predictFile(m cfg.Modality, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, data, ok := s.readUpload(w, r, field)
		if !ok {
			return
		}
		s.respond(w, r)(s.p.Predict(r.Context(), orchestrator.Input{Modality: m, Filename: name, Data: data}))
	}
}

func (s *Server) predictSpeech(w http.ResponseWriter, r *http.Request) {
	name, data, ok := s.readUpload(w, r, "audio")
	if !ok {
		return
	}
	s.respond(w, r)(s.p.PredictSpeech(r.Context(), name, data))
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) (string, []byte, bool) {
	if r.ContentLength > s.maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, tooLarge(s.maxBytes))
		return "", nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	f, hdr, err := r.FormFile(field)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLarge(s.maxBytes))
			return "", nil, false
		}
		writeError(w, http.StatusBadRequest, "No "+field+" file provided")
		return "", nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}
	return hdr.Filename, data, true
}

type response struct {
	ID              string                    `json:"id"`
	Modality        cfg.Modality              `json:"modality"`
	Predictions     map[string]string         `json:"predictions"`
	PerModel        []ensemble.ModelResult    `json:"per_model"`
	Tally           ensemble.VoteTally        `json:"tally"`
	FinalPrediction *string                   `json:"final_prediction"`
	Transcript      string                    `json:"transcript,omitempty"`
	Music           *recommend.Recommendation `json:"music,omitempty"`
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request) func(*orchestrator.Result, error) {
	return func(res *orchestrator.Result, err error) {
		switch {
		case errors.Is(err, orchestrator.ErrEmptyInput), errors.Is(err, orchestrator.ErrEmptyTranscript):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, orchestrator.ErrNoModels), errors.Is(err, orchestrator.ErrNoTranscriber):
			writeError(w, http.StatusNotImplemented, err.Error())
			return
		case err != nil:
			s.log.WithError(err).WithField("path", r.URL.Path).Error("predict failed")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.p.Record(res)
		writeJSON(w, http.StatusOK, response{
			ID:              res.ID,
			Modality:        res.Modality,
			Predictions:     res.Predictions(),
			PerModel:        res.Decision.PerModel,
			Tally:           res.Decision.Tally,
			FinalPrediction: res.Decision.FinalLabel,
			Transcript:      res.Transcript,
			Music:           res.Music,
		})
	}
}

func tooLarge(limit int64) string {
	return fmt.Sprintf("Upload exceeds %d MB", limit>>20)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
