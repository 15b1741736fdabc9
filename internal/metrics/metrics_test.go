package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestObserveHelpersInitializeLazily(t *testing.T) {
	Init()
	Init()

	ObserveFetch("https://metrics-test.example/careers", "ok", 512)
	require.InDelta(t, 1, testutil.ToFloat64(fetchesTotal.WithLabelValues("metrics-test.example", "ok")), 0)
	require.InDelta(t, 512, testutil.ToFloat64(fetchBytesTotal.WithLabelValues("metrics-test.example")), 0)

	ObserveSite("metrics_test_state")
	require.InDelta(t, 1, testutil.ToFloat64(sitesTotal.WithLabelValues("metrics_test_state")), 0)

	ObserveStoreWrite(99, "ok")
	require.InDelta(t, 1, testutil.ToFloat64(storeWritesTotal.WithLabelValues("99", "ok")), 0)

	ObserveTranslation("xx", "fallback")
	require.InDelta(t, 1, testutil.ToFloat64(translationsTotal.WithLabelValues("xx", "fallback")), 0)
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://google.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
