package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Unit is one extraction unit of a document: the whole text for flat
// documents, a single page for paginated ones, or a markdown section.
type Unit struct {
	// Page is the 1-based page number, nil for non-paged units.
	Page *int

	// Text is the raw extracted text of the unit.
	Text string

	// Extra carries additional provenance merged into chunk metadata,
	// such as a markdown section title.
	Extra map[string]any
}

// Document is a single ingestable source.
type Document interface {
	// Name is the source name recorded in chunk provenance.
	Name() string

	// Path is the originating file path.
	Path() string

	// Units extracts the document's text units.
	Units() ([]Unit, error)
}

// TextDocument is a flat plain-text document: one unit, no page.
type TextDocument struct {
	SourceName string
	FilePath   string
	Text       string
}

func (d *TextDocument) Name() string { return d.SourceName }
func (d *TextDocument) Path() string { return d.FilePath }

func (d *TextDocument) Units() ([]Unit, error) {
	return []Unit{{Text: d.Text}}, nil
}

// PagedDocument is a document with pre-extracted per-page text, 1-based.
type PagedDocument struct {
	SourceName string
	FilePath   string
	Pages      []string
}

func (d *PagedDocument) Name() string { return d.SourceName }
func (d *PagedDocument) Path() string { return d.FilePath }

func (d *PagedDocument) Units() ([]Unit, error) {
	units := make([]Unit, len(d.Pages))
	for i, text := range d.Pages {
		page := i + 1
		units[i] = Unit{Page: &page, Text: text}
	}
	return units, nil
}

// MarkdownDocument splits a markdown source into header-delimited sections,
// each becoming one non-paged unit tagged with its section title path.
type MarkdownDocument struct {
	SourceName string
	FilePath   string
	Source     []byte
}

func (d *MarkdownDocument) Name() string { return d.SourceName }
func (d *MarkdownDocument) Path() string { return d.FilePath }

func (d *MarkdownDocument) Units() ([]Unit, error) {
	sections, err := splitMarkdownSections(d.Source)
	if err != nil {
		return nil, fmt.Errorf("split markdown: %w", err)
	}
	units := make([]Unit, 0, len(sections))
	for _, sec := range sections {
		unit := Unit{Text: sec.Content}
		if sec.Title != "" {
			unit.Extra = map[string]any{"section": sec.Title}
		}
		units = append(units, unit)
	}
	return units, nil
}

// LoadDocument builds a Document from a file on disk. Markdown files are
// section-split; text files containing form feeds are treated as paginated
// (the pdftotext page-break convention); everything else is flat text.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)

	if strings.EqualFold(filepath.Ext(path), ".md") {
		return &MarkdownDocument{SourceName: name, FilePath: path, Source: data}, nil
	}

	text := string(data)
	if strings.Contains(text, "\f") {
		return &PagedDocument{
			SourceName: name,
			FilePath:   path,
			Pages:      strings.Split(text, "\f"),
		}, nil
	}
	return &TextDocument{SourceName: name, FilePath: path, Text: text}, nil
}

// brokenDocument stands in for a file that could not be read, so a directory
// scan can defer the failure to the pipeline's per-file report instead of
// aborting the whole batch.
type brokenDocument struct {
	path string
	err  error
}

func (d *brokenDocument) Name() string { return filepath.Base(d.path) }
func (d *brokenDocument) Path() string { return d.path }

func (d *brokenDocument) Units() ([]Unit, error) {
	return nil, d.err
}

// LoadPath resolves a file or directory into documents. Directories are
// scanned non-recursively for .txt and .md files, matching the ingest CLI
// contract. An unreadable file inside a directory is returned as a document
// that fails on extraction, so the pipeline records it alongside the
// successes instead of the scan aborting.
func LoadPath(path string) ([]Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		doc, err := LoadDocument(path)
		if err != nil {
			return nil, err
		}
		return []Document{doc}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var docs []Document
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md":
			full := filepath.Join(path, e.Name())
			doc, err := LoadDocument(full)
			if err != nil {
				docs = append(docs, &brokenDocument{path: full, err: err})
				continue
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}
