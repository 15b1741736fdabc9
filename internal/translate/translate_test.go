package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
)

func TestGoogleTranslateParsesResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "de", r.Form.Get("target"))
		require.Equal(t, "en", r.Form.Get("source"))
		require.Equal(t, []string{"career", "jobs"}, r.Form["q"])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"translations": []map[string]string{
					{"translatedText": "Karriere"},
					{"translatedText": "Stellen &amp; Jobs"},
				},
			},
		})
	}))
	defer srv.Close()

	g, err := NewGoogle(context.Background(), "test-key",
		option.WithEndpoint(srv.URL+"/language/translate/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	out, err := g.Translate(context.Background(), []string{"career", "jobs"}, "en", "de")
	require.NoError(t, err)
	require.Equal(t, []string{"Karriere", "Stellen & Jobs"}, out)
}

func TestGoogleTranslateSurfacesHTTPErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"quota"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	g, err := NewGoogle(context.Background(), "",
		option.WithEndpoint(srv.URL+"/language/translate/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	_, err = g.Translate(context.Background(), []string{"career"}, "en", "de")
	require.Error(t, err)
}

func TestGlossaryRoundTrip(t *testing.T) {
	t.Parallel()

	g := NewGlossary(map[string]map[string]string{
		"de": {"Software Developer": "Softwareentwickler", "career": "Karriere"},
	})

	out, err := g.Translate(context.Background(), []string{"career", "Software Developer", "DevOps"}, "en", "de")
	require.NoError(t, err)
	require.Equal(t, []string{"Karriere", "Softwareentwickler", "DevOps"}, out)

	back, err := g.Translate(context.Background(), []string{"softwareentwickler"}, "de", "en")
	require.NoError(t, err)
	require.Equal(t, []string{"Software Developer"}, back)

	_, err = g.Translate(context.Background(), []string{"career"}, "en", "ja")
	require.ErrorIs(t, err, crawler.ErrTranslation)
}

type brokenTranslator struct{}

func (brokenTranslator) Translate(context.Context, []string, string, string) ([]string, error) {
	return nil, errors.New("unavailable")
}

func TestInstrumentedWrapsFailures(t *testing.T) {
	t.Parallel()

	broken := NewInstrumented(brokenTranslator{}, zap.NewNop())
	_, err := broken.Translate(context.Background(), []string{"career"}, "en", "de")
	require.ErrorIs(t, err, crawler.ErrTranslation)

	short := NewInstrumented(shortTranslator{}, nil)
	_, err = short.Translate(context.Background(), []string{"career", "jobs"}, "en", "de")
	require.ErrorIs(t, err, crawler.ErrTranslation)

	ok := NewInstrumented(NewGlossary(map[string]map[string]string{"de": {"career": "Karriere"}}), nil)
	out, err := ok.Translate(context.Background(), []string{"career"}, "en", "de")
	require.NoError(t, err)
	require.Equal(t, []string{"Karriere"}, out)
}

type shortTranslator struct{}

func (shortTranslator) Translate(context.Context, []string, string, string) ([]string, error) {
	return []string{"one"}, nil
}
