package analyzer

import (
	"testing"
)

const fullPage = `<!DOCTYPE html>
<html>
<head>
  <title>Example Domain Home Page For Testing Purposes</title>
  <meta name="description" content="An example description">
  <meta name="description" content="A second description that should be ignored">
  <meta property="og:title" content="OG Title">
  <meta property="og:description" content="OG Description">
  <meta property="og:image" content="/img.png">
  <meta property="og:type" content="website">
  <meta name="twitter:card" content="summary_large_image">
  <meta name="twitter:title" content="Twitter Title">
  <meta name="twitter:description" content="Twitter Description">
  <meta name="twitter:image" content="images/card.png">
  <link rel="canonical" href="https://example.com/canonical">
  <meta name="robots" content="index, follow">
  <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body><title>Second title</title></body>
</html>`

func TestExtractAllTags(t *testing.T) {
	base := mustParse(t, "https://example.com/a/b")
	got, err := Extract(fullPage, base)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := SEOAnalysis{
		URL:                "https://example.com/a/b",
		Title:              "Example Domain Home Page For Testing Purposes",
		Description:        "An example description",
		OGTitle:            "OG Title",
		OGDescription:      "OG Description",
		OGImage:            "https://example.com/img.png",
		OGType:             "website",
		TwitterCard:        "summary_large_image",
		TwitterTitle:       "Twitter Title",
		TwitterDescription: "Twitter Description",
		TwitterImage:       "https://example.com/a/images/card.png",
		Canonical:          "https://example.com/canonical",
		Robots:             "index, follow",
		Viewport:           "width=device-width, initial-scale=1",
	}
	if got != want {
		t.Errorf("Extract mismatch:\n got: %+v\nwant: %+v", got, want)
	}
}

func TestExtractMissingTags(t *testing.T) {
	got, err := Extract("<html><head></head><body><p>nothing here</p></body></html>", mustParse(t, "https://example.com/"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	want := SEOAnalysis{URL: "https://example.com/"}
	if got != want {
		t.Errorf("Expected only URL to be set, got %+v", got)
	}
}

func TestExtractEmptyValuesAreAbsent(t *testing.T) {
	html := `<title></title><meta name="description" content=""><meta property="og:image" content="">`
	got, err := Extract(html, mustParse(t, "https://example.com/"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got.Title != "" || got.Description != "" || got.OGImage != "" {
		t.Errorf("Expected empty values, got %+v", got)
	}
}

func TestExtractMalformedURLPassesThrough(t *testing.T) {
	html := `<meta property="og:image" content="%zz"><link rel="canonical" href="http://[::1">`
	got, err := Extract(html, mustParse(t, "https://example.com/"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got.OGImage != "%zz" {
		t.Errorf("Expected raw og:image, got %q", got.OGImage)
	}
	if got.Canonical != "http://[::1" {
		t.Errorf("Expected raw canonical, got %q", got.Canonical)
	}
}

func TestResolveURL(t *testing.T) {
	base := mustParse(t, "https://example.com/a/b")
	tests := map[string]string{
		"/img.png":                   "https://example.com/img.png",
		"img.png":                    "https://example.com/a/img.png",
		"../up.png":                  "https://example.com/up.png",
		"//cdn.example.net/x.jpg":    "https://cdn.example.net/x.jpg",
		"https://other.example/y.jp": "https://other.example/y.jp",
		"":                           "",
	}
	for ref, want := range tests {
		if got := resolveURL(base, ref); got != want {
			t.Errorf("resolveURL(%q) = %q, want %q", ref, got, want)
		}
	}
}
