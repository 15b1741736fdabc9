// Package translate provides Keyword Translator implementations.
package translate

import (
	"context"
	"fmt"
	"html"

	"google.golang.org/api/option"
	translatev2 "google.golang.org/api/translate/v2"
)

// Google translates through the Cloud Translation v2 REST API.
type Google struct {
	svc *translatev2.Service
}

// NewGoogle builds a client. Extra options (endpoint, HTTP client) are for tests.
func NewGoogle(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Google, error) {
	if apiKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	}
	svc, err := translatev2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create translate service: %w", err)
	}
	return &Google{svc: svc}, nil
}

// Translate implements crawler.Translator.
func (g *Google) Translate(ctx context.Context, words []string, source, target string) ([]string, error) {
	if len(words) == 0 || source == target {
		return append([]string(nil), words...), nil
	}
	call := g.svc.Translations.List(words, target).Format("text").Context(ctx)
	if source != "" {
		call = call.Source(source)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("translate %s->%s: %w", source, target, err)
	}
	if len(resp.Translations) != len(words) {
		return nil, fmt.Errorf("translate %s->%s: got %d results for %d words", source, target, len(resp.Translations), len(words))
	}
	out := make([]string, len(words))
	for i, tr := range resp.Translations {
		out[i] = html.UnescapeString(tr.TranslatedText)
	}
	return out, nil
}
