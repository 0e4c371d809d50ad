package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractLinks walks every anchor in rawHTML, resolves its href against
// baseURL, classifies it, and returns the matches in document order. linkType
// filters the result to "internal", "external", or "all" (the default).
func ExtractLinks(rawHTML string, baseURL string, linkType string) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("extract: parse base url %q: %w", baseURL, err)
	}

	links := make([]Link, 0)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		resolved, kind := classifyLink(base, href)
		rel, _ := s.Attr("rel")

		links = append(links, Link{
			Href: resolved,
			Text: normalizeWhitespace(s.Text()),
			Rel:  rel,
			Type: kind,
		})
	})

	return filterLinks(links, linkType), nil
}

func classifyLink(base *url.URL, href string) (string, LinkType) {
	switch {
	case strings.HasPrefix(strings.ToLower(href), "mailto:"):
		return href, LinkMailto
	case strings.HasPrefix(strings.ToLower(href), "tel:"):
		return href, LinkTel
	case strings.HasPrefix(href, "#"):
		resolved := base.ResolveReference(&url.URL{Fragment: strings.TrimPrefix(href, "#")})
		return resolved.String(), LinkFragment
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href, LinkOther
	}

	resolved := base.ResolveReference(ref)

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return resolved.String(), LinkOther
	}

	if sameOrigin(base, resolved) && resolved.Path == base.Path && resolved.RawQuery == base.RawQuery && resolved.Fragment != "" {
		return resolved.String(), LinkFragment
	}

	if sameOrigin(base, resolved) {
		return resolved.String(), LinkInternal
	}
	return resolved.String(), LinkExternal
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

func filterLinks(links []Link, linkType string) []Link {
	switch linkType {
	case "", "all":
		return links
	case "internal":
		return filterByType(links, LinkInternal)
	case "external":
		return filterByType(links, LinkExternal)
	default:
		return links
	}
}

func filterByType(links []Link, want LinkType) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if l.Type == want {
			out = append(out, l)
		}
	}
	return out
}
