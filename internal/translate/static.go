package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
)

// Glossary translates from a fixed per-language dictionary keyed by English term.
// It also answers the reverse direction.
type Glossary struct {
	forward map[string]map[string]string
	reverse map[string]map[string]string
}

// NewGlossary builds a Glossary from lang -> english -> localized entries.
// English keys are matched case-insensitively.
func NewGlossary(entries map[string]map[string]string) *Glossary {
	g := &Glossary{
		forward: make(map[string]map[string]string, len(entries)),
		reverse: make(map[string]map[string]string, len(entries)),
	}
	for lang, words := range entries {
		lang = strings.ToLower(lang)
		fwd := make(map[string]string, len(words))
		rev := make(map[string]string, len(words))
		for en, local := range words {
			fwd[strings.ToLower(en)] = local
			rev[strings.ToLower(local)] = en
		}
		g.forward[lang] = fwd
		g.reverse[lang] = rev
	}
	return g
}

// Translate implements crawler.Translator. Words missing from the glossary
// pass through unchanged; an unknown language is an error.
func (g *Glossary) Translate(_ context.Context, words []string, source, target string) ([]string, error) {
	var table map[string]string
	switch {
	case source == target:
		return append([]string(nil), words...), nil
	case source == crawler.LanguageEnglish:
		table = g.forward[target]
	case target == crawler.LanguageEnglish:
		table = g.reverse[source]
	}
	if table == nil {
		return nil, fmt.Errorf("%w: no glossary for %s->%s", crawler.ErrTranslation, source, target)
	}
	out := make([]string, len(words))
	for i, w := range words {
		if tr, ok := table[strings.ToLower(w)]; ok {
			out[i] = tr
			continue
		}
		out[i] = w
	}
	return out, nil
}
