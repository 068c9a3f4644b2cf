package service

import (
	"bytes"
	"context"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ExportService renders a user's bookmarks, notes and highlights into a
// single self-contained HTML document. Notes are markdown.
type ExportService struct {
	bookmarks  BookmarkStore
	tags       TagStore
	highlights HighlightStore
	markdown   goldmark.Markdown
}

func NewExportService(bookmarks BookmarkStore, tags TagStore, highlights HighlightStore) *ExportService {
	return &ExportService{
		bookmarks:  bookmarks,
		tags:       tags,
		highlights: highlights,
		markdown:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (s *ExportService) ExportHTML(ctx context.Context, userID string) ([]byte, error) {
	count, err := s.bookmarks.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	bookmarks, err := s.bookmarks.List(ctx, userID, uint(count)+1, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		ids = append(ids, b.ID)
	}
	tagMap, err := s.tags.TagNamesForBookmarks(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	allHighlights, err := s.highlights.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	highlightsByBookmark := make(map[string][]string)
	for _, h := range allHighlights {
		highlightsByBookmark[h.BookmarkID] = append(highlightsByBookmark[h.BookmarkID], h.Text)
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>Bookmarks</title></head>\n<body>\n")
	for _, b := range bookmarks {
		title := b.URL
		if b.Title != nil {
			title = *b.Title
		}
		if b.URL != "" {
			fmt.Fprintf(&buf, "<h2><a href=%q>%s</a></h2>\n", b.URL, html.EscapeString(title))
		} else {
			fmt.Fprintf(&buf, "<h2>%s</h2>\n", html.EscapeString(title))
		}
		if tags := tagMap[b.ID]; len(tags) > 0 {
			buf.WriteString("<p>")
			for i, tag := range tags {
				if i > 0 {
					buf.WriteString(" ")
				}
				fmt.Fprintf(&buf, "<code>#%s</code>", html.EscapeString(tag))
			}
			buf.WriteString("</p>\n")
		}
		if b.Note != "" {
			if err := s.markdown.Convert([]byte(b.Note), &buf); err != nil {
				return nil, err
			}
		}
		for _, text := range highlightsByBookmark[b.ID] {
			fmt.Fprintf(&buf, "<blockquote>%s</blockquote>\n", html.EscapeString(text))
		}
	}
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}
