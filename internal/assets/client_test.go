package assets

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"atelier-backend/config"

	"github.com/stretchr/testify/require"
)

func newTestStore(baseURL string) *cdnStore {
	return &cdnStore{
		cloudName:  "demo",
		apiKey:     "key123",
		apiSecret:  "secret456",
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestUploadReturnsReference(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(10<<20))
		require.Equal(t, "key123", r.FormValue("api_key"))
		require.NotEmpty(t, r.FormValue("public_id"))
		require.NotEmpty(t, r.FormValue("signature"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		_ = file.Close()

		// The caller's content type travels on the file part.
		require.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn.example.com/demo/img.jpg"}`))
	}))
	defer server.Close()

	s := newTestStore(server.URL)
	reference, err := s.Upload(context.Background(), []byte("fake-image"), "image/jpeg", "")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/demo/img.jpg", reference)
	require.Equal(t, "/v1_1/demo/image/upload", gotPath)
}

func TestUploadRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	s := newTestStore(server.URL)
	_, err := s.Upload(context.Background(), []byte("fake-image"), "image/jpeg", "")
	require.Error(t, err)
}

func TestDestroySignsRequest(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		require.Equal(t, "shop/abc123", r.FormValue("public_id"))
		require.Equal(t, "key123", r.FormValue("api_key"))

		// Signature covers the sorted parameters plus the secret.
		payload := "public_id=" + r.FormValue("public_id") + "&timestamp=" + r.FormValue("timestamp") + "secret456"
		sum := sha1.Sum([]byte(payload))
		require.Equal(t, hex.EncodeToString(sum[:]), r.FormValue("signature"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	defer server.Close()

	s := newTestStore(server.URL)
	require.NoError(t, s.Destroy(context.Background(), "shop/abc123"))
	require.Equal(t, "/v1_1/demo/image/destroy", gotPath)
}

func TestNewStoreWithoutCredentials(t *testing.T) {
	store := NewStore(&config.Config{})

	_, err := store.Upload(context.Background(), []byte("x"), "image/png", "")
	require.ErrorIs(t, err, ErrUploadsDisabled)

	// Remote deletes become silent no-ops.
	require.NoError(t, store.Destroy(context.Background(), "abc"))
}
