package assets

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	mu        sync.Mutex
	destroyed []string
}

func (r *recordingStore) Upload(ctx context.Context, data []byte, contentType, folder string) (string, error) {
	return "", nil
}

func (r *recordingStore) Destroy(ctx context.Context, publicID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyed = append(r.destroyed, publicID)
	return nil
}

func (r *recordingStore) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.destroyed...)
}

func TestMergeRemovesAndAppends(t *testing.T) {
	store := &recordingStore{}
	c := NewCoordinator(store)

	existing := []string{
		"https://cdn.example.com/img/a.jpg",
		"https://cdn.example.com/img/b.jpg",
		"https://cdn.example.com/img/c.jpg",
	}
	deletions := []string{"https://cdn.example.com/img/b.jpg"}
	uploads := []string{"https://cdn.example.com/img/d.jpg"}

	merged, changed := c.Merge(existing, deletions, uploads, "")
	require.True(t, changed)
	require.Equal(t, []string{
		"https://cdn.example.com/img/a.jpg",
		"https://cdn.example.com/img/c.jpg",
		"https://cdn.example.com/img/d.jpg",
	}, merged)

	// Exactly one remote delete, for the object derived from b.
	require.Eventually(t, func() bool {
		return len(store.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, []string{"b"}, store.snapshot())
}

func TestMergeIgnoresUnknownDeletion(t *testing.T) {
	store := &recordingStore{}
	c := NewCoordinator(store)

	existing := []string{"https://cdn.example.com/img/a.jpg"}
	merged, changed := c.Merge(existing, []string{"https://cdn.example.com/img/x.jpg"}, nil, "")

	require.False(t, changed)
	require.Equal(t, existing, merged)

	// Deleting a reference the entity never owned must not touch the store.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, store.snapshot())
}

func TestMergeNoChangeRequested(t *testing.T) {
	c := NewCoordinator(&recordingStore{})

	existing := []string{"https://cdn.example.com/img/a.jpg"}
	merged, changed := c.Merge(existing, nil, nil, "")
	require.False(t, changed)
	require.Equal(t, existing, merged)
}

func TestMergeUploadOrderPreserved(t *testing.T) {
	c := NewCoordinator(&recordingStore{})

	merged, changed := c.Merge(nil, nil, []string{"u1", "u2", "u3"}, "")
	require.True(t, changed)
	require.Equal(t, []string{"u1", "u2", "u3"}, merged)
}

func TestMergeUsesFolderForPublicID(t *testing.T) {
	store := &recordingStore{}
	c := NewCoordinator(store)

	existing := []string{"https://cdn.example.com/shop/b.png"}
	_, changed := c.Merge(existing, existing, nil, "shop")
	require.True(t, changed)

	require.Eventually(t, func() bool {
		return len(store.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, []string{"shop/b"}, store.snapshot())
}

func TestPublicID(t *testing.T) {
	tests := []struct {
		reference string
		folder    string
		want      string
	}{
		{"https://cdn.example.com/img/abc123.jpg", "", "abc123"},
		{"https://cdn.example.com/img/abc123.jpg", "shop", "shop/abc123"},
		{"https://cdn.example.com/abc123", "", "abc123"},
		{"abc123.png", "", "abc123"},
		{"https://cdn.example.com/img/archive.tar.gz", "", "archive.tar"},
	}

	for _, tt := range tests {
		got := PublicID(tt.reference, tt.folder)
		if got != tt.want {
			t.Errorf("PublicID(%q, %q) = %q, want %q", tt.reference, tt.folder, got, tt.want)
		}
	}
}
