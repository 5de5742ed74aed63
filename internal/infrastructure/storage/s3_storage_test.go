package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        string
}

// fakeS3 records requests and answers every call with the given status
func fakeS3(t *testing.T, status int) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		})
		mu.Unlock()
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func newTestStore(t *testing.T, endpoint string) *S3ImageStore {
	t.Helper()
	store, err := NewS3ImageStore(&config.StorageConfig{
		Bucket:          "images",
		Region:          "eu-west-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return store
}

func TestNewS3ImageStore_Validation(t *testing.T) {
	_, err := NewS3ImageStore(nil)
	assert.ErrorContains(t, err, "configuration is required")

	_, err = NewS3ImageStore(&config.StorageConfig{})
	assert.ErrorContains(t, err, "bucket is required")
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com",
		publicBaseURL(&config.StorageConfig{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"}, "eu-west-1"))
	assert.Equal(t, "http://minio:9000/b",
		publicBaseURL(&config.StorageConfig{Bucket: "b", Endpoint: "http://minio:9000"}, "eu-west-1"))
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com",
		publicBaseURL(&config.StorageConfig{Bucket: "b"}, "eu-west-1"))
}

func TestS3ImageStore_Upload(t *testing.T) {
	srv, requests := fakeS3(t, http.StatusOK)
	store := newTestStore(t, srv.URL)

	url, err := store.Upload(context.Background(), "products/r1.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/images/products/r1.png", url)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, "/images/products/r1.png", reqs[0].path)
	assert.Equal(t, "image/png", reqs[0].contentType)
	assert.Contains(t, reqs[0].body, "png-bytes")
}

func TestS3ImageStore_UploadErrors(t *testing.T) {
	t.Run("rejects empty input", func(t *testing.T) {
		store := newTestStore(t, "http://127.0.0.1:1")
		_, err := store.Upload(context.Background(), "", []byte("x"), "image/png")
		assert.Error(t, err)
		_, err = store.Upload(context.Background(), "k", nil, "image/png")
		assert.Error(t, err)
	})

	t.Run("surfaces server errors", func(t *testing.T) {
		srv, _ := fakeS3(t, http.StatusForbidden)
		store := newTestStore(t, srv.URL)
		_, err := store.Upload(context.Background(), "products/r1.png", []byte("png"), "image/png")
		assert.ErrorContains(t, err, "failed to upload image")
	})
}

func TestS3ImageStore_EnsureBucketExisting(t *testing.T) {
	srv, requests := fakeS3(t, http.StatusOK)
	store := newTestStore(t, srv.URL)

	require.NoError(t, store.EnsureBucket(context.Background()))
	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodHead, reqs[0].method)
}
