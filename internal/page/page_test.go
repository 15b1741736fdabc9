package page

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `<!doctype html>
<html lang="de-DE">
<head><title>Firma</title><style>.x{color:red}</style></head>
<body>
  <a href="/karriere">Karriere</a>
  <a>no href</a>
  <a href="mailto:info@firma.de">Mail</a>
  <p>Wir   suchen
  Softwareentwickler</p>
  <script>var tracking = "ignored";</script>
</body>
</html>`

func TestParseExposesAnchorsLanguageAndText(t *testing.T) {
	t.Parallel()

	p, err := Parse("https://firma.de/", []byte(sample))
	require.NoError(t, err)

	require.Equal(t, []string{"/karriere", "mailto:info@firma.de"}, p.Anchors())
	require.Equal(t, "de", p.DeclaredLanguage())
	require.Contains(t, p.Text(), "Wir suchen Softwareentwickler")
	require.NotContains(t, p.VisibleText(), "tracking")
	require.Contains(t, p.VisibleText(), "Softwareentwickler")
	require.Equal(t, sample, p.Markup())
}

func TestDeclaredLanguageMissing(t *testing.T) {
	t.Parallel()

	p, err := Parse("https://x.com/", []byte("<html><body>hi</body></html>"))
	require.NoError(t, err)
	require.Empty(t, p.DeclaredLanguage())
}
