package document

import (
	"fmt"
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxContentSize is the maximum document body size in bytes.
const MaxContentSize = 1 << 20 // 1MB

// Document is an ingested article (immutable value object).
// Created by an external crawler/collector; immutable once chunked.
type Document struct {
	id          string
	title       string
	content     string
	source      string
	url         string
	author      string
	publishedAt string
	categories  []string
	contentType string
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Content: non-empty, max 1MB.
// Title, source, url, author, publishedAt and categories are optional metadata.
func New(
	id, title, content, source, url, author, publishedAt string,
	categories []string, contentType string,
) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID must be alphanumeric with underscores and hyphens")
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}
	if contentType == "" {
		contentType = "article"
	}

	return Document{
		id:          id,
		title:       title,
		content:     content,
		source:      source,
		url:         url,
		author:      author,
		publishedAt: publishedAt,
		categories:  cloneStrings(categories),
		contentType: contentType,
	}, nil
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Title returns the article title.
func (d Document) Title() string { return d.title }

// Content returns the article body text.
func (d Document) Content() string { return d.content }

// Source returns the publishing site name.
func (d Document) Source() string { return d.source }

// URL returns the canonical article URL.
func (d Document) URL() string { return d.url }

// Author returns the article author, if known.
func (d Document) Author() string { return d.author }

// PublishedAt returns the publication date as supplied by the source.
func (d Document) PublishedAt() string { return d.publishedAt }

// Categories returns the category tags.
func (d Document) Categories() []string { return d.categories }

// ContentType returns the content type ("article" by default).
func (d Document) ContentType() string { return d.contentType }

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}
