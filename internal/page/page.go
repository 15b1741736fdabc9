// Package page wraps a fetched HTML document with the accessors the
// discovery pipeline needs.
package page

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a parsed HTML document plus the URL it was fetched from.
type Page struct {
	URL    string
	doc    *goquery.Document
	markup string
	text   string
}

// Parse builds a Page from raw markup. Malformed markup still yields a
// document; the HTML parser recovers from nearly everything.
func Parse(pageURL string, body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return &Page{URL: pageURL, doc: doc, markup: string(body)}, nil
}

// Anchors returns the href of every anchor element that carries one, in document order.
func (p *Page) Anchors() []string {
	var hrefs []string
	p.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		hrefs = append(hrefs, href)
	})
	return hrefs
}

// DeclaredLanguage returns the primary subtag of the root lang attribute, lower-cased.
func (p *Page) DeclaredLanguage() string {
	lang, ok := p.doc.Find("html").First().Attr("lang")
	if !ok {
		return ""
	}
	lang = strings.TrimSpace(lang)
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return strings.ToLower(lang)
}

// Text returns the document's full text content with whitespace runs collapsed.
func (p *Page) Text() string {
	if p.text == "" {
		p.text = strings.Join(strings.Fields(p.doc.Text()), " ")
	}
	return p.text
}

// VisibleText returns body text without script and style contents. It is the
// input used for statistical language detection.
func (p *Page) VisibleText() string {
	body := p.doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(body.Text()), " ")
}

// Markup returns the raw document source.
func (p *Page) Markup() string {
	return p.markup
}
