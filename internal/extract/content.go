package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var negativeClassPattern = regexp.MustCompile(`(?i)ad|advert|banner|nav|footer|sidebar|promo`)

// blockTags lists the element types eligible for main-content scoring. The
// negative penalty comes from an element's class and id attributes only, so
// a header or footer element without such a class or id scores on its text
// like any other block; nav elements are not candidates.
var blockTags = "div, section, article, main, aside, header, footer, ul, ol, table, p"

// ExtractMainContent locates the page's primary content subtree and renders
// it in the requested format. rawHTML is a full document; selector, if
// non-empty, overrides detection and extracts that subtree directly.
func ExtractMainContent(rawHTML string, format string, selector string) (MainContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return MainContent{}, fmt.Errorf("extract: parse html: %w", err)
	}

	var root *goquery.Selection
	var rootSelector string

	if selector != "" {
		root = doc.Find(selector).First()
		if root.Length() == 0 {
			return MainContent{}, fmt.Errorf("extract: selector %q matched no element", selector)
		}
		rootSelector = selector
	} else {
		root, rootSelector = detectRoot(doc)
	}

	text := renderText(root)
	result := MainContent{
		Text:                 text,
		WordCount:            countWords(text),
		DetectedRootSelector: rootSelector,
	}

	switch format {
	case "", "text":
		// text already populated
	case "markdown":
		html, err := goquery.OuterHtml(root)
		if err != nil {
			return MainContent{}, fmt.Errorf("extract: serialize root: %w", err)
		}
		md, err := htmltomarkdown.ConvertString(html)
		if err != nil {
			return MainContent{}, fmt.Errorf("extract: convert markdown: %w", err)
		}
		result.Markdown = strings.TrimRight(md, "\n")
	case "html":
		stripped := root.Clone()
		stripped.Find("script, style").Remove()
		html, err := goquery.OuterHtml(stripped)
		if err != nil {
			return MainContent{}, fmt.Errorf("extract: serialize root: %w", err)
		}
		result.HTML = html
	default:
		return MainContent{}, fmt.Errorf("extract: unknown format %q", format)
	}

	return result, nil
}

// detectRoot implements the main-content detection precedence: <main>, then
// <article>, then role="main", then the highest-scoring block element, then
// <body> if every candidate scores at or below zero.
func detectRoot(doc *goquery.Document) (*goquery.Selection, string) {
	if main := doc.Find("main").First(); main.Length() > 0 {
		return main, "main"
	}
	if article := doc.Find("article").First(); article.Length() > 0 {
		return article, "article"
	}
	if roleMain := doc.Find(`[role="main"]`).First(); roleMain.Length() > 0 {
		return roleMain, `[role="main"]`
	}

	var best *goquery.Selection
	bestScore := 0.0
	bestIndex := -1
	bestTag := ""

	doc.Find(blockTags).Each(func(i int, s *goquery.Selection) {
		score := scoreElement(s)
		if best == nil || score > bestScore {
			best = s
			bestScore = score
			bestIndex = i
			bestTag = nodeTagName(s)
		}
	})

	if best != nil && bestScore > 0 {
		return best, selectorFor(best, bestTag, bestIndex)
	}

	return doc.Find("body").First(), "body"
}

// scoreElement implements score = text_length - 5*link_text_length -
// 10*negative_class_matches.
func scoreElement(s *goquery.Selection) float64 {
	textLen := len(strings.TrimSpace(s.Text()))

	linkTextLen := 0
	s.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkTextLen += len(strings.TrimSpace(a.Text()))
	})

	negativeMatches := 0
	class, _ := s.Attr("class")
	id, _ := s.Attr("id")
	if negativeClassPattern.MatchString(class) {
		negativeMatches++
	}
	if negativeClassPattern.MatchString(id) {
		negativeMatches++
	}

	return float64(textLen) - 5*float64(linkTextLen) - 10*float64(negativeMatches)
}

func nodeTagName(s *goquery.Selection) string {
	if s.Length() == 0 || s.Get(0) == nil {
		return ""
	}
	return s.Get(0).Data
}

// selectorFor renders a best-effort CSS selector describing the detected
// element, for reporting in detected_root_selector only; it is not re-parsed.
func selectorFor(s *goquery.Selection, tag string, index int) string {
	if id, ok := s.Attr("id"); ok && id != "" {
		return tag + "#" + id
	}
	if class, ok := s.Attr("class"); ok && class != "" {
		first := strings.Fields(class)
		if len(first) > 0 {
			return tag + "." + first[0]
		}
	}
	return tag + ":nth-match(" + strconv.Itoa(index+1) + ")"
}

// renderText walks block-level descendants in document order, joining their
// trimmed text with blank lines, and collapses intra-block whitespace to
// single spaces.
func renderText(root *goquery.Selection) string {
	var paragraphs []string

	blockSelector := "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre, td, th"
	matches := root.Find(blockSelector)

	if matches.Length() == 0 {
		if t := normalizeWhitespace(root.Text()); t != "" {
			return t
		}
		return ""
	}

	matches.Each(func(_ int, s *goquery.Selection) {
		if t := normalizeWhitespace(s.Text()); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})

	return strings.Join(paragraphs, "\n\n")
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func countWords(s string) int {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	return len(strings.Fields(s))
}
