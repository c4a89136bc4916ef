package storage

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAferoStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, "ticket-1/report.pdf", []byte("%PDF-1.4")))

	f, err := store.Open(ctx, "ticket-1/report.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, store.Remove(ctx, "ticket-1/report.pdf"))
	_, err = store.Open(ctx, "ticket-1/report.pdf")
	assert.Error(t, err)
}

func TestAferoStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, name := range []string{"../etc/passwd", "/abs/file.txt", "a/../../b.txt", "", ".."} {
		assert.Error(t, store.Save(ctx, name, []byte("x")), name)
	}
	assert.NoError(t, store.Save(ctx, `dir\file.txt`, []byte("x")))
}
