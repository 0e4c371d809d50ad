package extract

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractMetadata reads the document head: title, description, language,
// canonical link, og:*/twitter:* meta tags, and application/ld+json blocks.
func ExtractMetadata(rawHTML string, baseURL string) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Metadata{}, fmt.Errorf("extract: parse html: %w", err)
	}

	base, _ := url.Parse(baseURL)

	meta := Metadata{
		OG:      map[string]string{},
		Twitter: map[string]string{},
		JSONLD:  []interface{}{},
	}

	meta.Title = normalizeWhitespace(doc.Find("title").First().Text())
	meta.Language, _ = doc.Find("html").First().Attr("lang")

	doc.Find("meta[name]").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		content, _ := s.Attr("content")
		name = strings.ToLower(strings.TrimSpace(name))
		switch {
		case name == "description":
			meta.Description = content
		case strings.HasPrefix(name, "twitter:"):
			meta.Twitter[strings.TrimPrefix(name, "twitter:")] = content
		}
	})

	doc.Find("meta[property]").Each(func(_ int, s *goquery.Selection) {
		property, _ := s.Attr("property")
		content, _ := s.Attr("content")
		property = strings.ToLower(strings.TrimSpace(property))
		if strings.HasPrefix(property, "og:") {
			meta.OG[strings.TrimPrefix(property, "og:")] = content
		}
	})

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				meta.CanonicalURL = base.ResolveReference(ref).String()
			} else {
				meta.CanonicalURL = href
			}
		} else {
			meta.CanonicalURL = href
		}
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var parsed interface{}
		if err := json.Unmarshal([]byte(s.Text()), &parsed); err == nil {
			meta.JSONLD = append(meta.JSONLD, parsed)
		}
		// malformed json-ld blocks are skipped; the page simply yields one
		// fewer entry rather than failing the whole extraction.
	})

	return meta, nil
}
