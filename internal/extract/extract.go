// Package extract turns fetched HTML into plain text for deep-content analysis.
package extract

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
)

// DefaultMaxChars bounds the text handed to the analyzer.
const DefaultMaxChars = 8000

// Page is the readable content of a fetched document.
type Page struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Text        string `json:"text"`
	WordCount   int    `json:"word_count"`
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	mdLinkRe     = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	mdMarkRe     = regexp.MustCompile("[#*_>`|]+")
)

// HTML parses r as HTML (decoding to UTF-8 using contentType and any
// <meta charset>) and returns the page text truncated to maxChars runes.
// maxChars <= 0 means DefaultMaxChars.
func HTML(r io.Reader, contentType string, maxChars int) (*Page, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "extract: read body")
	}

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if !utf8.Valid(data) {
			return nil, eris.Wrap(err, "extract: decode charset")
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse html")
	}

	doc.Find("script,noscript,style,nav,footer,header,svg").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	}
	desc := strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	if desc == "" {
		desc = strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
	}

	var parts []string
	doc.Find("h1,h2,h3,p,li,blockquote,td").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		parts = append(parts, doc.Find("body").Text())
	}
	text := strings.TrimSpace(whitespaceRe.ReplaceAllString(strings.Join(parts, " "), " "))

	return &Page{
		Title:       title,
		Description: desc,
		Text:        Truncate(text, maxChars),
		WordCount:   len(strings.Fields(text)),
	}, nil
}

// Markdown builds a Page from markdown returned by a remote reader. Link
// targets and emphasis markers are dropped; whitespace is collapsed.
func Markdown(title, md string, maxChars int) *Page {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	text := mdLinkRe.ReplaceAllString(md, "$1")
	text = mdMarkRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	return &Page{
		Title:     strings.TrimSpace(title),
		Text:      Truncate(text, maxChars),
		WordCount: len(strings.Fields(text)),
	}
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
