package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkStore_OneShot(t *testing.T) {
	store := NewLinkStore("/api/downloads/", time.Minute)
	blob := &Blob{Data: []byte("%PDF-1.3"), MediaType: MediaTypePDF}

	location, err := store.Download(context.Background(), "a.pdf", blob)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(location, "/api/downloads/"))
	assert.Equal(t, 1, store.Len())

	token := strings.TrimPrefix(location, "/api/downloads/")
	name, got, ok := store.Take(token)
	require.True(t, ok)
	assert.Equal(t, "a.pdf", name)
	assert.Same(t, blob, got)

	_, _, ok = store.Take(token)
	assert.False(t, ok, "link is revoked after the first fetch")
	assert.Equal(t, 0, store.Len())
}

func TestLinkStore_Expiry(t *testing.T) {
	store := NewLinkStore("", time.Minute)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	token, err := store.Download(context.Background(), "a.pdf", &Blob{})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, _, ok := store.Take(token)
	assert.False(t, ok)

	_, err = store.Download(context.Background(), "b.pdf", &Blob{})
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 0, store.Len())
}
