package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestASR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "note.m4a", hdr.Filename)
		_, _ = w.Write([]byte(`{"language": "en", "segments": [
			{"start": 0, "end": 1.2, "text": " I feel "},
			{"start": 1.2, "end": 2, "text": ""},
			{"start": 2, "end": 3.5, "text": "great today"}]}`))
	}))
	defer srv.Close()

	out, err := NewHTTP().ASR(context.Background(), srv.URL, "note.m4a", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "en", out.Language)
	assert.Equal(t, "I feel great today", out.Text())
}

func TestASR_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTP().ASR(context.Background(), srv.URL, "a.wav", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asr 503")
}
