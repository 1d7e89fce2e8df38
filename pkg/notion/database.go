package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches every page of a database query, following cursors.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page

	req := &notionapi.DatabaseQueryRequest{}
	if filter != nil {
		req.Filter = filter.Filter
		req.Sorts = filter.Sorts
		req.PageSize = filter.PageSize
	}

	for {
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}
		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		next := *req
		next.StartCursor = resp.NextCursor
		req = &next
	}
}

// PlainText concatenates rich text runs.
func PlainText(rt []notionapi.RichText) string {
	var sb strings.Builder
	for _, r := range rt {
		if r.PlainText != "" {
			sb.WriteString(r.PlainText)
		} else if r.Text != nil {
			sb.WriteString(r.Text.Content)
		}
	}
	return strings.TrimSpace(sb.String())
}

// TextProperty reads a title or rich_text property as plain text.
func TextProperty(p notionapi.Page, name string) string {
	switch prop := p.Properties[name].(type) {
	case *notionapi.TitleProperty:
		return PlainText(prop.Title)
	case *notionapi.RichTextProperty:
		return PlainText(prop.RichText)
	}
	return ""
}

// StatusName reads a status property's option name.
func StatusName(p notionapi.Page, name string) string {
	if sp, ok := p.Properties[name].(*notionapi.StatusProperty); ok {
		return sp.Status.Name
	}
	return ""
}

// Text builds a single-run rich text value, truncated to Notion's 2000
// character limit.
func Text(s string) []notionapi.RichText {
	if r := []rune(s); len(r) > 2000 {
		s = string(r[:2000])
	}
	return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}}
}
