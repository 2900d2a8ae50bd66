package ingest

import (
	"strings"
	"testing"
)

func TestSplitMarkdownSections_Basic(t *testing.T) {
	input := `# Guide

Intro text.

## Setup

Setup steps.

## Usage

Usage notes.
`
	sections, err := splitMarkdownSections([]byte(input))
	if err != nil {
		t.Fatalf("splitMarkdownSections failed: %v", err)
	}

	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}

	if sections[0].Title != "Guide" {
		t.Errorf("section 0 title: expected 'Guide', got %q", sections[0].Title)
	}
	if !strings.Contains(sections[0].Content, "Intro text.") {
		t.Errorf("section 0 missing intro text")
	}

	if sections[1].Title != "Guide > Setup" {
		t.Errorf("section 1 title: expected 'Guide > Setup', got %q", sections[1].Title)
	}
	if !strings.Contains(sections[1].Content, "Setup steps.") {
		t.Errorf("section 1 missing setup text")
	}

	if sections[2].Title != "Guide > Usage" {
		t.Errorf("section 2 title: expected 'Guide > Usage', got %q", sections[2].Title)
	}
}

func TestSplitMarkdownSections_NoHeaders(t *testing.T) {
	input := "Just a paragraph with no headers at all.\n"
	sections, err := splitMarkdownSections([]byte(input))
	if err != nil {
		t.Fatalf("splitMarkdownSections failed: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Title != "" {
		t.Errorf("expected empty title, got %q", sections[0].Title)
	}
	if sections[0].Content != input {
		t.Errorf("content should be the whole source")
	}
}

func TestMarkdownDocument_Units(t *testing.T) {
	doc := &MarkdownDocument{
		SourceName: "guide.md",
		FilePath:   "/docs/guide.md",
		Source:     []byte("# A\n\none\n\n## B\n\ntwo\n"),
	}
	units, err := doc.Units()
	if err != nil {
		t.Fatalf("Units failed: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	for _, u := range units {
		if u.Page != nil {
			t.Error("markdown units must not carry page numbers")
		}
	}
	if units[1].Extra["section"] != "A > B" {
		t.Errorf("unit 1 section: expected 'A > B', got %v", units[1].Extra["section"])
	}
}
