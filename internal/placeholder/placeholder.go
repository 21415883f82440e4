// Package placeholder resolves [@KEY] tokens inside a document whose
// logical lines of text may be fragmented into several runs.
//
// Only literal tokens are supported. Replacement is a single leftmost,
// non-overlapping pass: values are never re-scanned, so a value that
// itself contains a token is inserted verbatim. When one key's token is a
// substring of another key's token the result depends on which match
// starts first in the text; callers should avoid overlapping keys.
package placeholder

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	tokenOpen  = "[@"
	tokenClose = "]"
)

// ErrResolution reports a document tree that could not be traversed.
var ErrResolution = errors.New("placeholder resolution failed")

// Run is the smallest editable unit of text.
type Run interface {
	Text() string
	SetText(text string)
	// Paragraph identifies the enclosing paragraph. ok is false for
	// orphan text that does not belong to any paragraph.
	Paragraph() (id int, ok bool)
}

// Document enumerates every text-bearing run in document order.
type Document interface {
	TextRuns() ([]Run, error)
}

// Token returns the literal placeholder for key.
func Token(key string) string {
	return tokenOpen + key + tokenClose
}

// NewReplacer builds the single-pass replacer for metadata. It returns nil
// when there is nothing to replace.
func NewReplacer(metadata map[string]string) *strings.Replacer {
	if len(metadata) == 0 {
		return nil
	}

	// Longer keys first so that, at a given position, the most specific
	// token wins. This only makes overlapping keys deterministic; it is
	// not a precedence contract.
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		pairs = append(pairs, Token(key), metadata[key])
	}
	return strings.NewReplacer(pairs...)
}

// Replace substitutes every token of metadata in text.
func Replace(text string, metadata map[string]string) string {
	replacer := NewReplacer(metadata)
	if replacer == nil {
		return text
	}
	return replacer.Replace(text)
}

// Keys lists the distinct keys referenced by tokens in text, in order of
// first appearance.
func Keys(text string) []string {
	var keys []string
	seen := make(map[string]struct{})
	for {
		start := strings.Index(text, tokenOpen)
		if start < 0 {
			return keys
		}
		rest := text[start+len(tokenOpen):]
		end := strings.Index(rest, tokenClose)
		if end < 0 {
			return keys
		}
		key := rest[:end]
		if key != "" {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
		}
		text = rest[end+len(tokenClose):]
	}
}

// Resolve rewrites the runs of doc so that every token of metadata is
// replaced, even when a token spans several runs of the same paragraph.
//
// Runs are grouped per paragraph and their text concatenated. A group whose
// text changes is written back entirely into its first run and every other
// run of the group is emptied, which drops the formatting of those runs.
// Groups without a change are left untouched. Missing keys are not errors.
func Resolve(doc Document, metadata map[string]string) error {
	replacer := NewReplacer(metadata)
	if replacer == nil {
		return nil
	}

	runs, err := doc.TextRuns()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResolution, err)
	}

	for _, group := range groupByParagraph(runs) {
		original := groupText(group)
		if original == "" {
			continue
		}

		replaced := replacer.Replace(original)
		if replaced == original {
			continue
		}

		group[0].SetText(replaced)
		for _, run := range group[1:] {
			run.SetText("")
		}
	}
	return nil
}

// DocumentKeys lists the keys referenced anywhere in doc, grouping runs
// exactly like Resolve so split tokens are found.
func DocumentKeys(doc Document) ([]string, error) {
	runs, err := doc.TextRuns()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}

	keys := []string{}
	seen := make(map[string]struct{})
	for _, group := range groupByParagraph(runs) {
		for _, key := range Keys(groupText(group)) {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func groupText(group []Run) string {
	var b strings.Builder
	for _, run := range group {
		b.WriteString(run.Text())
	}
	return b.String()
}

// groupByParagraph keeps document order: groups appear in the order their
// paragraph is first seen and runs keep their order within a group.
func groupByParagraph(runs []Run) [][]Run {
	groups := make([][]Run, 0, len(runs))
	byParagraph := make(map[int]int)

	for _, run := range runs {
		id, ok := run.Paragraph()
		if !ok {
			groups = append(groups, []Run{run})
			continue
		}
		idx, seen := byParagraph[id]
		if !seen {
			idx = len(groups)
			byParagraph[id] = idx
			groups = append(groups, nil)
		}
		groups[idx] = append(groups[idx], run)
	}
	return groups
}
