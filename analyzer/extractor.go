package analyzer

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extract parses html and pulls the tag values. finalURL is the base for
// relative image and canonical links and becomes the analysis URL.
func Extract(html string, finalURL *url.URL) (SEOAnalysis, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return SEOAnalysis{}, err
	}
	return extractDocument(doc, finalURL), nil
}

func extractDocument(doc *goquery.Document, base *url.URL) SEOAnalysis {
	meta := func(selector string) string {
		return doc.Find(selector).AttrOr("content", "")
	}

	return SEOAnalysis{
		URL:                base.String(),
		Title:              doc.Find("title").First().Text(),
		Description:        meta(`meta[name="description"]`),
		OGTitle:            meta(`meta[property="og:title"]`),
		OGDescription:      meta(`meta[property="og:description"]`),
		OGImage:            resolveURL(base, meta(`meta[property="og:image"]`)),
		OGType:             meta(`meta[property="og:type"]`),
		TwitterCard:        meta(`meta[name="twitter:card"]`),
		TwitterTitle:       meta(`meta[name="twitter:title"]`),
		TwitterDescription: meta(`meta[name="twitter:description"]`),
		TwitterImage:       resolveURL(base, meta(`meta[name="twitter:image"]`)),
		Canonical:          resolveURL(base, doc.Find(`link[rel="canonical"]`).AttrOr("href", "")),
		Robots:             meta(`meta[name="robots"]`),
		Viewport:           meta(`meta[name="viewport"]`),
	}
}

// resolveURL makes ref absolute against base. Malformed values are returned unchanged.
func resolveURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
