//go:build integration

package pagestore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore connects to a local MinIO. Skips when unreachable.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	store, err := New(Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		Bucket:    "docrag-test-pages",
	})
	require.NoError(t, err)

	if err := store.EnsureBucket(context.Background()); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	return store
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	session := uuid.New().String()
	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02, 0x03} // JPEG-ish bytes

	require.NoError(t, store.UploadPage(ctx, session, "report.pdf", 1, data))

	got, err := store.DownloadPage(ctx, session, "report.pdf", 1)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
