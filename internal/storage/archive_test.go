package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/careers-crawler/internal/storage/memory"
)

func TestArchiverSave(t *testing.T) {
	t.Parallel()

	blobs := memory.NewBlobStore()
	a := NewArchiver(blobs, "/landing/")

	uri, err := a.Save(context.Background(), "run-1", 2, "https://Example.com/", []byte("<html></html>"))
	require.NoError(t, err)
	require.Equal(t, "memory://landing/run-1/example.com-2.html", uri)

	body, ok := blobs.Get("landing/run-1/example.com-2.html")
	require.True(t, ok)
	require.Equal(t, "<html></html>", string(body))

	_, err = a.Save(context.Background(), "run-1", 3, "::", nil)
	require.Error(t, err)
}

func TestNilArchiverIsNoop(t *testing.T) {
	t.Parallel()

	a := NewArchiver(nil, "x")
	require.Nil(t, a)
	uri, err := a.Save(context.Background(), "run", 2, "https://x.com", []byte("x"))
	require.NoError(t, err)
	require.Empty(t, uri)
}

func TestArchiverKeepsRepeatedHostsApart(t *testing.T) {
	t.Parallel()

	blobs := memory.NewBlobStore()
	a := NewArchiver(blobs, "landing")

	first, err := a.Save(context.Background(), "run-1", 2, "https://x.com/", []byte("first"))
	require.NoError(t, err)
	second, err := a.Save(context.Background(), "run-1", 5, "https://x.com/", []byte("second"))
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.Equal(t, 2, blobs.Len())

	body, ok := blobs.Get("landing/run-1/x.com-2.html")
	require.True(t, ok)
	require.Equal(t, "first", string(body))
}
