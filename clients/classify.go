package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
)

// --- Classifier (/predict) ---
type ClassifyReq struct {
	Sentence string `json:"sentence"`
}
type ClassifyResp struct {
	Label  string             `json:"label"`
	Scores map[string]float64 `json:"scores,omitempty"`
	Error  string             `json:"error,omitempty"`
}

var ErrNoLabel = errors.New("classify: response has no label")

// Best returns the label, falling back to the highest score. Equal scores
// resolve to the lexicographically smallest label.
func (r *ClassifyResp) Best() (string, error) {
	if r.Label != "" {
		return r.Label, nil
	}
	if len(r.Scores) == 0 {
		return "", ErrNoLabel
	}
	keys := make([]string, 0, len(r.Scores))
	for k := range r.Scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if r.Scores[k] > r.Scores[best] {
			best = k
		}
	}
	return best, nil
}

// ClassifyText posts a sentence to a text model server.
func (h *HTTP) ClassifyText(ctx context.Context, url, sentence string) (string, error) {
	b, _ := json.Marshal(ClassifyReq{Sentence: sentence})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/predict", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	return h.classify(req)
}

// ClassifyFile uploads an audio or video clip to a model server.
func (h *HTTP) ClassifyFile(ctx context.Context, url, filename string, data []byte) (string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err = fw.Write(data); err != nil {
		return "", err
	}
	if err = w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/predict", &b)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return h.classify(req)
}

func (h *HTTP) classify(req *http.Request) (string, error) {
	resp, err := h.c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("classify %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var out ClassifyResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("classify decode: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("classify: %s", out.Error)
	}
	return out.Best()
}
