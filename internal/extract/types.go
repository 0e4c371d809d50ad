// Package extract implements the extraction pipeline (C5): transforming a
// rendered page's HTML into main content, a link catalog, and a metadata
// bundle, with deterministic output schemas.
package extract

// MainContent is the result of main-content detection plus one requested
// rendering format.
type MainContent struct {
	Text                  string `json:"text"`
	HTML                  string `json:"html,omitempty"`
	Markdown              string `json:"markdown,omitempty"`
	WordCount             int    `json:"word_count"`
	DetectedRootSelector  string `json:"detected_root_selector"`
}

// LinkType classifies a resolved anchor by its relationship to the page it
// was found on.
type LinkType string

const (
	LinkInternal LinkType = "Internal"
	LinkExternal LinkType = "External"
	LinkFragment LinkType = "Fragment"
	LinkMailto   LinkType = "Mailto"
	LinkTel      LinkType = "Tel"
	LinkOther    LinkType = "Other"
)

// Link is one resolved, classified anchor.
type Link struct {
	Href string   `json:"href"`
	Text string   `json:"text"`
	Rel  string   `json:"rel,omitempty"`
	Type LinkType `json:"link_type"`
}

// Metadata is the structured head/meta bundle extracted from a page.
type Metadata struct {
	Title        string                 `json:"title,omitempty"`
	Description  string                 `json:"description,omitempty"`
	Language     string                 `json:"language,omitempty"`
	CanonicalURL string                 `json:"canonical_url,omitempty"`
	OG           map[string]string      `json:"og"`
	Twitter      map[string]string      `json:"twitter"`
	JSONLD       []interface{}          `json:"json_ld"`
}
