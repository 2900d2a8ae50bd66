package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Generate(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"text": "  the answer  "})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 128, 0.0)
	answer, err := client.Generate(context.Background(), "the prompt")
	require.NoError(t, err)

	assert.Equal(t, "the answer", answer)
	assert.Equal(t, "the prompt", got.Prompt)
	assert.Equal(t, 128, got.MaxNewTokens)
	assert.Zero(t, got.Temperature)
}

func TestClient_Generate_GeneratedTextShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"generated_text": "alt shape"})
	}))
	defer srv.Close()

	answer, err := NewClient(srv.URL, 0, 0).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "alt shape", answer)
}

func TestClient_Generate_ErrorIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0, 0).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestClient_Generate_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0, 0).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not json")
}

func TestClient_Generate_EmptyShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0, 0).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither text nor generated_text")
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("http://localhost:8080/generate", 0, 0)
	assert.Equal(t, DefaultMaxNewTokens, c.maxNewTokens)
}
