package worker

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
	"github.com/JakeFAU/careers-crawler/internal/discovery"
	"github.com/JakeFAU/careers-crawler/internal/jobscan"
	"github.com/JakeFAU/careers-crawler/internal/keywords"
	"github.com/JakeFAU/careers-crawler/internal/publisher"
	pubmemory "github.com/JakeFAU/careers-crawler/internal/publisher/memory"
	"github.com/JakeFAU/careers-crawler/internal/queue/memory"
	"github.com/JakeFAU/careers-crawler/internal/results"
	"github.com/JakeFAU/careers-crawler/internal/storage"
	blobmemory "github.com/JakeFAU/careers-crawler/internal/storage/memory"
	storememory "github.com/JakeFAU/careers-crawler/internal/store/memory"
)

const landingHTML = `<html lang="en"><body>
<a href="/careers">Careers</a>
<a href="/careers/apply">Apply</a>
<a href="/about">About</a>
<a href="mailto:jobs@x.com">Mail</a>
<p>Contact hr@x.com or press (at) x.com</p>
</body></html>`

const careersHTML = `<html lang="en"><body>
<h1>Open roles</h1><p>We need a software developer and someone for DevOps.</p>
</body></html>`

func TestWorkerProcessPersistsSite(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{responses: map[string]crawler.FetchResponse{
		"https://x.com/":        ok("https://x.com/", landingHTML),
		"https://x.com/careers": ok("https://x.com/careers", careersHTML),
	}}
	store := openStore(t, "x.com", "old@x.com")
	blobs := blobmemory.NewBlobStore()
	pub := pubmemory.New()
	p := newPipeline(fetcher, store)
	p.Archiver = storage.NewArchiver(blobs, "landing")
	p.Publisher = pub

	w := New(nil, p, Config{Topic: "sites"}, zap.NewNop())
	rec := w.Process(context.Background(), crawler.SiteTask{RunID: "run-1", Row: 2, RawURL: "x.com"})

	require.Equal(t, crawler.SitePersisted, rec.State)
	require.NoError(t, rec.Err)
	require.Equal(t, "https://x.com/", rec.URL)
	require.Equal(t, []string{"https://x.com/careers"}, rec.JobPageURLs)
	require.Equal(t, []string{"DevOps", "Software Developer"}, rec.JobTitles)
	require.Equal(t, 1, rec.PagesScanned)
	require.Zero(t, rec.PagesFailed)

	requireCell(t, store, crawler.ColumnSite, "https://x.com/")
	requireCell(t, store, crawler.ColumnURLs, "https://x.com/careers")
	requireCell(t, store, crawler.ColumnEmails, "hr@x.com, jobs@x.com, old@x.com, press@x.com")
	requireCell(t, store, crawler.ColumnTitles, "DevOps, Software Developer")

	_, archived := blobs.Get("landing/run-1/x.com-2.html")
	require.True(t, archived)

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	ev, isEvent := msgs[0].Payload.(publisher.SiteEvent)
	require.True(t, isEvent)
	require.Equal(t, "persisted", ev.State)
	require.Equal(t, "memory://landing/run-1/x.com-2.html", ev.ArchiveURI)
}

func TestWorkerProcessIsIdempotent(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{responses: map[string]crawler.FetchResponse{
		"https://x.com/":        ok("https://x.com/", landingHTML),
		"https://x.com/careers": ok("https://x.com/careers", careersHTML),
	}}
	store := openStore(t, "https://x.com/", "")
	w := New(nil, newPipeline(fetcher, store), Config{PageConcurrency: 2}, zap.NewNop())

	task := crawler.SiteTask{Row: 2, RawURL: "https://x.com/"}
	w.Process(context.Background(), task)
	first := store.Rows()
	w.Process(context.Background(), task)
	require.Equal(t, first, store.Rows())
}

func TestWorkerProcessLandingFailureLeavesRowUntouched(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{errs: map[string]error{"https://down.example/": errors.New("connection refused")}}
	store := openStore(t, "down.example", "keep@x.com")
	pub := pubmemory.New()
	p := newPipeline(fetcher, store)
	p.Publisher = pub
	w := New(nil, p, Config{Topic: "sites"}, zap.NewNop())

	rec := w.Process(context.Background(), crawler.SiteTask{Row: 2, RawURL: "down.example"})
	require.Equal(t, crawler.SiteFailed, rec.State)
	require.ErrorIs(t, rec.Err, crawler.ErrFetch)

	requireCell(t, store, crawler.ColumnSite, "down.example")
	requireCell(t, store, crawler.ColumnEmails, "keep@x.com")
	requireCell(t, store, crawler.ColumnURLs, "")

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "failed", msgs[0].Payload.(publisher.SiteEvent).State)
}

func TestWorkerProcessRetriesTransientLandingFailure(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		responses: map[string]crawler.FetchResponse{"https://x.com/": ok("https://x.com/", `<p>nothing</p>`)},
		failFirst: map[string]int{"https://x.com/": 1},
	}
	store := openStore(t, "https://x.com/", "")
	w := New(nil, newPipeline(fetcher, store), Config{FetchAttempts: 2}, zap.NewNop())

	rec := w.Process(context.Background(), crawler.SiteTask{Row: 2, RawURL: "https://x.com/"})
	require.Equal(t, crawler.SitePersisted, rec.State)
	require.Equal(t, 2, fetcher.calls("https://x.com/"))
	requireCell(t, store, crawler.ColumnURLs, crawler.NoURLSentinel)
	requireCell(t, store, crawler.ColumnEmails, crawler.NoEmailSentinel)
	requireCell(t, store, crawler.ColumnTitles, crawler.NoPositionsSentinel)
}

func TestWorkerProcessJobPageErrorsYieldParseSentinel(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{responses: map[string]crawler.FetchResponse{
		"https://x.com/":     ok("https://x.com/", `<a href="/jobs">Jobs</a>`),
		"https://x.com/jobs": {URL: "https://x.com/jobs", StatusCode: http.StatusInternalServerError},
	}}
	store := openStore(t, "https://x.com/", "")
	w := New(nil, newPipeline(fetcher, store), Config{}, zap.NewNop())

	rec := w.Process(context.Background(), crawler.SiteTask{Row: 2, RawURL: "https://x.com/"})
	require.Equal(t, crawler.SitePersisted, rec.State)
	require.Equal(t, 1, rec.PagesFailed)
	requireCell(t, store, crawler.ColumnURLs, "https://x.com/jobs")
	requireCell(t, store, crawler.ColumnTitles, crawler.ParseErrorSentinel)
}

func TestWorkerRunDrainsClosedQueue(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{responses: map[string]crawler.FetchResponse{
		"https://a.com/": ok("https://a.com/", `<p>a</p>`),
	}}
	store := openStore(t, "https://a.com/", "")
	q := memory.NewQueue(4)
	require.NoError(t, q.Enqueue(context.Background(), crawler.SiteTask{Row: 2, RawURL: "https://a.com/"}))
	require.NoError(t, q.Enqueue(context.Background(), crawler.SiteTask{Row: 3, RawURL: "not a url"}))
	q.Close()

	var (
		mu   sync.Mutex
		seen []crawler.SiteRecord
	)
	p := newPipeline(fetcher, store)
	p.Report = func(rec crawler.SiteRecord) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, rec)
	}

	done := make(chan struct{})
	go func() {
		New(q, p, Config{}, zap.NewNop()).Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on closed queue")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	require.Equal(t, crawler.SitePersisted, seen[0].State)
	require.Equal(t, crawler.SiteFailed, seen[1].State)
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	q := memory.NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(q, Pipeline{}, Config{}, zap.NewNop()).Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

// --- helpers and fakes ---

func newPipeline(fetcher crawler.Fetcher, store crawler.TabularStore) Pipeline {
	det := fixedDetector{lang: crawler.LanguageEnglish}
	careers := keywords.NewSet(keywords.DefaultCareerKeywords, nil, zap.NewNop())
	titles := keywords.NewSet(keywords.DefaultJobTitles, nil, zap.NewNop())
	classifier := discovery.NewClassifier(discovery.Substring{}, discovery.ShortestPrefix)
	return Pipeline{
		Fetcher:  fetcher,
		Resolver: discovery.NewResolver(classifier, careers, det, zap.NewNop()),
		Scanner:  jobscan.NewScanner(fetcher, titles, det, discovery.Substring{}, zap.NewNop()),
		Writer:   results.NewWriter(store, zap.NewNop()),
	}
}

func openStore(t *testing.T, site, emails string) *storememory.Store {
	t.Helper()
	store := storememory.NewStore([][]string{
		{"Site", "Job URLs", "Emails", "Titles"},
		{site, "", emails, ""},
	})
	require.NoError(t, store.Open(context.Background()))
	return store
}

func requireCell(t *testing.T, store *storememory.Store, col int, want string) {
	t.Helper()
	got, err := store.Cell(context.Background(), 2, col)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func ok(url, body string) crawler.FetchResponse {
	return crawler.FetchResponse{URL: url, StatusCode: http.StatusOK, Body: []byte(body)}
}

type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]crawler.FetchResponse
	errs      map[string]error
	failFirst map[string]int
	counts    map[string]int
}

func (f *fakeFetcher) Fetch(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[req.URL]++
	if f.counts[req.URL] <= f.failFirst[req.URL] {
		return crawler.FetchResponse{}, errors.New("i/o timeout")
	}
	if err, found := f.errs[req.URL]; found {
		return crawler.FetchResponse{}, err
	}
	if resp, found := f.responses[req.URL]; found {
		return resp, nil
	}
	return crawler.FetchResponse{URL: req.URL, StatusCode: http.StatusNotFound}, nil
}

func (f *fakeFetcher) calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[url]
}

type fixedDetector struct{ lang string }

func (d fixedDetector) Detect(string, string) (string, error) {
	return d.lang, nil
}
