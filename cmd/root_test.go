package cmd

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/careers-crawler/internal/app"
	"github.com/JakeFAU/careers-crawler/internal/config"
	"github.com/JakeFAU/careers-crawler/internal/crawler"
	storememory "github.com/JakeFAU/careers-crawler/internal/store/memory"
)

type pageFetcher map[string]string

func (f pageFetcher) Fetch(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	body, ok := f[req.URL]
	if !ok {
		return crawler.FetchResponse{URL: req.URL, StatusCode: http.StatusNotFound}, nil
	}
	return crawler.FetchResponse{URL: req.URL, StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("translate:\n  provider: none\nstore:\n  provider: memory\nlogging:\n  level: error\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))
	return path
}

// These tests swap the package-level app factory and must not run in parallel.

func TestScanCommandRunsOnce(t *testing.T) {
	store := storememory.NewStore([][]string{{"Site"}, {"example.com"}})
	fetcher := pageFetcher{
		"https://example.com/":        `<html lang="en"><a href="/careers">Careers</a> team@example.com</html>`,
		"https://example.com/careers": `<html lang="en"><h2>Data Scientist</h2></html>`,
	}
	orig := newApp
	newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app.App, error) {
		return app.New(ctx, cfg, logger, app.WithStore(store), app.WithFetcher(fetcher))
	}
	t.Cleanup(func() { newApp = orig })

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"scan", "--config", writeConfig(t), "--env-file", ""})
	require.NoError(t, root.ExecuteContext(context.Background()))

	require.Contains(t, out.String(), "1 persisted")
	rows := store.Rows()
	require.Equal(t, "https://example.com/careers", rows[1][crawler.ColumnURLs-1])
	require.Equal(t, "team@example.com", rows[1][crawler.ColumnEmails-1])
	require.Equal(t, "Data Scientist", rows[1][crawler.ColumnTitles-1])
}

func TestScanCommandFailsOnStoreAuth(t *testing.T) {
	store := storememory.NewStore(nil)
	store.OpenErr = crawler.ErrStoreAuth
	orig := newApp
	newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app.App, error) {
		return app.New(ctx, cfg, logger, app.WithStore(store), app.WithFetcher(pageFetcher{}))
	}
	t.Cleanup(func() { newApp = orig })

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"scan", "--config", writeConfig(t), "--env-file", ""})
	err := root.ExecuteContext(context.Background())
	require.ErrorIs(t, err, crawler.ErrStoreAuth)
}

func TestRootRejectsMissingConfig(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"scan", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--env-file", ""})
	require.Error(t, root.ExecuteContext(context.Background()))
}

func TestLoadEnvIgnoresMissingFile(t *testing.T) {
	require.NoError(t, loadEnv(filepath.Join(t.TempDir(), "nope.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CAREERS_TEST_ENV_VALUE=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CAREERS_TEST_ENV_VALUE") })
	require.NoError(t, loadEnv(path))
	require.Equal(t, "loaded", os.Getenv("CAREERS_TEST_ENV_VALUE"))
}

func TestBackgroundRunsRejectsConcurrentStart(t *testing.T) {
	b := &backgroundRuns{running: true}
	require.Error(t, b.start())
}
