package embedding

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisionClient_EmbedImages(t *testing.T) {
	var got visionImageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embed/images", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(visionImageResponse{
			Embeddings: [][][]float32{
				{{1, 0}, {0, 1}},
				{{0.5, 0.5}},
			},
		})
	}))
	defer srv.Close()

	client := NewVisionClient(srv.URL, 2)
	vectors, err := client.EmbedImages(context.Background(), [][]byte{{0xFF}, {0xAB}})
	require.NoError(t, err)

	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 2)
	assert.Len(t, vectors[1], 1)
	require.Len(t, got.Images, 2)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xFF}), got.Images[0])
}

func TestVisionClient_EmbedImages_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(visionImageResponse{
			Embeddings: [][][]float32{{{1, 0, 0}}},
		})
	}))
	defer srv.Close()

	_, err := NewVisionClient(srv.URL, 2).EmbedImages(context.Background(), [][]byte{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2")
}

func TestVisionClient_EmbedQueryText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embed/query", r.URL.Path)
		var req visionQueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is on page 3", req.Query)
		json.NewEncoder(w).Encode(visionQueryResponse{
			Embedding: [][]float32{{1, 0}, {0, 1}},
		})
	}))
	defer srv.Close()

	vectors, err := NewVisionClient(srv.URL, 2).EmbedQueryText(context.Background(), "what is on page 3")
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
}

func TestVisionClient_ErrorIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewVisionClient(srv.URL, 2).EmbedQueryText(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model loading")
}
