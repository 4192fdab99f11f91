// Package errors defines the structured error type shared by the rendering
// pipeline. Errors carry a kind (read, render, config, io) plus optional
// deck and path context so the watch loop can log failures without losing
// which deck's pass they aborted.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a DeckError.
type Kind string

const (
	// KindRead marks a missing or undecodable data source. Fatal for the
	// owning deck's render pass only.
	KindRead Kind = "read"
	// KindRender marks a template evaluation failure. Fatal for the owning
	// deck's render pass only.
	KindRender Kind = "render"
	// KindConfig marks an invalid configuration (bad discovery pattern,
	// bad port). Fatal at startup, before any watching begins.
	KindConfig Kind = "config"
	// KindIO marks a failure writing the rendered document.
	KindIO Kind = "io"
)

// DeckError is a structured error with deck and file context.
type DeckError struct {
	Kind    Kind
	Message string
	Cause   error
	Deck    string
	Path    string
}

func (e *DeckError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s]", e.Kind))

	if e.Deck != "" {
		parts = append(parts, "deck:"+e.Deck)
	}
	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *DeckError) Unwrap() error {
	return e.Cause
}

// Is matches on kind, so callers can test errors.Is(err, &DeckError{Kind: KindRead}).
func (e *DeckError) Is(target error) bool {
	var t *DeckError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}

	return false
}

// WithDeck attaches the owning deck's identifier.
func (e *DeckError) WithDeck(deck string) *DeckError {
	e.Deck = deck

	return e
}

// WithPath attaches the file path the error concerns.
func (e *DeckError) WithPath(path string) *DeckError {
	e.Path = path

	return e
}

// NewReadError creates a data-source read error.
func NewReadError(message string, cause error) *DeckError {
	return &DeckError{Kind: KindRead, Message: message, Cause: cause}
}

// NewRenderError creates a template evaluation error.
func NewRenderError(message string, cause error) *DeckError {
	return &DeckError{Kind: KindRender, Message: message, Cause: cause}
}

// NewConfigError creates a configuration error.
func NewConfigError(message string, cause error) *DeckError {
	return &DeckError{Kind: KindConfig, Message: message, Cause: cause}
}

// NewIOError creates a document write error.
func NewIOError(message string, cause error) *DeckError {
	return &DeckError{Kind: KindIO, Message: message, Cause: cause}
}

// IsKind reports whether err is a DeckError of the given kind.
func IsKind(err error, kind Kind) bool {
	var de *DeckError
	if errors.As(err, &de) {
		return de.Kind == kind
	}

	return false
}
