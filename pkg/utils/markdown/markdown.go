package markdown

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// Markdown wraps markdown source and renders it to sanitized HTML or plain text.
type Markdown struct {
	// Source is the markdown source code.
	Source string
	// renderedHTML caches the sanitized HTML rendered from the source.
	renderedHTML *string
	// renderedText caches the plain text rendered from the source.
	renderedText *string
}

var (
	bfRenderer = blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.Safelink | blackfriday.NofollowLinks | blackfriday.HrefTargetBlank,
	})
	bfExtensions = blackfriday.NoIntraEmphasis | blackfriday.Tables | blackfriday.Autolink | blackfriday.Strikethrough | blackfriday.NoEmptyLineBeforeBlock
	policy       = bluemonday.UGCPolicy()
	strict       = bluemonday.StrictPolicy()
)

func NewMarkdown(source string) *Markdown {
	return &Markdown{Source: source}
}

func (m *Markdown) run() []byte {
	return blackfriday.Run([]byte(m.Source),
		blackfriday.WithRenderer(bfRenderer),
		blackfriday.WithExtensions(bfExtensions),
	)
}

// Render converts the Markdown Source into sanitized HTML.
func (m *Markdown) Render() string {
	if m.renderedHTML != nil {
		return *m.renderedHTML
	}
	if m.Source == "" {
		empty := ""
		m.renderedHTML = &empty
		return empty
	}

	safe := string(bytes.TrimSpace(policy.SanitizeBytes(m.run())))
	m.renderedHTML = &safe
	return safe
}

// PlainText renders the source and drops every tag.
func (m *Markdown) PlainText() string {
	if m.renderedText != nil {
		return *m.renderedText
	}

	text := html.UnescapeString(string(bytes.TrimSpace(strict.SanitizeBytes(m.run()))))
	m.renderedText = &text
	return text
}

// Strip removes any markup from untrusted text, keeping the readable content.
func Strip(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`#`, `\#`,
	`<`, `\<`,
	`>`, `\>`,
	`|`, `\|`,
	`~`, `\~`,
)

// Escape makes literal text safe to embed in markdown source.
func Escape(s string) string {
	return escaper.Replace(s)
}
