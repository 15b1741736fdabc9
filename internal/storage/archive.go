// Package storage archives fetched landing pages through a BlobStore.
// Backends live in the gcs, local, and memory subpackages.
package storage

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
)

// Archiver writes landing-page markup under prefix/runID/host-row.html.
type Archiver struct {
	blobs  crawler.BlobStore
	prefix string
}

// NewArchiver wraps blobs. A nil store yields a nil Archiver, which is a no-op.
func NewArchiver(blobs crawler.BlobStore, prefix string) *Archiver {
	if blobs == nil {
		return nil
	}
	return &Archiver{blobs: blobs, prefix: strings.Trim(prefix, "/")}
}

// Save stores body for the site at row and returns the blob URI. The row keeps
// repeated hosts within one run apart.
func (a *Archiver) Save(ctx context.Context, runID string, row int, siteURL string, body []byte) (string, error) {
	if a == nil {
		return "", nil
	}
	host := crawler.HostOf(siteURL)
	if host == "" {
		return "", fmt.Errorf("archive: no host in %q", siteURL)
	}
	key := path.Join(a.prefix, runID, host+"-"+strconv.Itoa(row)+".html")
	uri, err := a.blobs.PutObject(ctx, key, "text/html; charset=utf-8", body)
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", key, err)
	}
	return uri, nil
}
