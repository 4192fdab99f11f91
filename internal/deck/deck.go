// Package deck models a deck: the bundle of file paths bound together by a
// filename prefix, plus pattern-based discovery of multiple decks in one
// directory.
package deck

import (
	"path/filepath"
	"strings"
)

// DefaultRenderedFile is the output document name used when none is
// configured.
const DefaultRenderedFile = "index.html"

// Deck holds the concrete paths of one card deck. All paths are fixed at
// construction and never change for the lifetime of a render session.
type Deck struct {
	// Prefix is the logical identifier binding the deck's files together.
	Prefix string
	// InputDir is the assets directory holding the deck's files.
	InputDir string
	// DataPath is the CSV data source.
	DataPath string
	// TemplatePath is the single-card template.
	TemplatePath string
	// HeaderPath is the optional custom header file. Its absence is not an
	// error.
	HeaderPath string
	// CSSFile is the stylesheet reference inserted into the document. It is
	// a filename, not a path: the browser resolves it relative to the
	// served directory.
	CSSFile string
	// OutputPath is the rendered document. It is overwritten on every pass
	// and must never be treated as a triggering input.
	OutputPath string
}

// New derives a deck's paths from the input directory and prefix per the
// layout contract. Empty csvFile and cssFile fall back to the
// prefix-derived defaults.
func New(inputDir, prefix, renderedFile, csvFile, cssFile string) Deck {
	if renderedFile == "" {
		renderedFile = DefaultRenderedFile
	}
	if csvFile == "" {
		csvFile = filepath.Join(inputDir, prefix+".csv")
	}
	if cssFile == "" {
		cssFile = prefix + ".css"
	}

	return Deck{
		Prefix:       prefix,
		InputDir:     inputDir,
		DataPath:     csvFile,
		TemplatePath: filepath.Join(inputDir, prefix+".html.jinja2"),
		HeaderPath:   filepath.Join(inputDir, prefix+".header.html"),
		CSSFile:      cssFile,
		OutputPath:   filepath.Join(inputDir, renderedFile),
	}
}

// expand substitutes a discovered deck identifier into a path template.
// The placeholder is "{}"; templates without it are returned unchanged.
func expand(template, id string) string {
	return strings.ReplaceAll(template, "{}", id)
}
