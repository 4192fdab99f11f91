// Package session orchestrates one deck's render pass: read rows, expand
// fragments, compose and write the document.
package session

import (
	"context"
	stderrors "errors"
	"os"
	"time"

	"github.com/cardeck/cardeck/internal/cards"
	"github.com/cardeck/cardeck/internal/deck"
	"github.com/cardeck/cardeck/internal/errors"
	"github.com/cardeck/cardeck/internal/logging"
)

// DefaultSettleDelay is how long a render waits before reading the data
// source. Editors and spreadsheet apps often have not finished flushing
// when the filesystem event fires; reading immediately yields an empty or
// truncated file.
const DefaultSettleDelay = 500 * time.Millisecond

// Session owns one deck and renders it. The deck's paths are immutable
// after construction; Render may be called repeatedly from the watch loop.
type Session struct {
	deck   deck.Deck
	comma  rune
	settle time.Duration
	log    logging.Logger
}

// New creates a render session for d. A zero settle duration keeps the
// default.
func New(d deck.Deck, comma rune, settle time.Duration, log logging.Logger) *Session {
	if settle == 0 {
		settle = DefaultSettleDelay
	}

	return &Session{deck: d, comma: comma, settle: settle, log: log}
}

// Deck returns the session's deck.
func (s *Session) Deck() deck.Deck {
	return s.deck
}

// OutputPath returns the document path this session writes. The watcher
// uses it to suppress self-triggered events.
func (s *Session) OutputPath() string {
	return s.deck.OutputPath
}

// Render performs one full pass: settle delay, fresh read of the data
// source, fragment expansion, document composition, atomic write. Any
// error aborts this deck's pass only.
func (s *Session) Render(ctx context.Context) error {
	select {
	case <-time.After(s.settle):
	case <-ctx.Done():
		return ctx.Err()
	}

	start := time.Now()

	rows, err := cards.ReadRows(s.deck.DataPath, s.comma)
	if err != nil {
		return wrap(err, s.deck.Prefix)
	}

	tpl, err := cards.LoadTemplate(s.deck.TemplatePath)
	if err != nil {
		return wrap(err, s.deck.Prefix)
	}

	fragments, err := cards.Expand(rows, tpl, start)
	if err != nil {
		return wrap(err, s.deck.Prefix)
	}

	header, err := readHeader(s.deck.HeaderPath)
	if err != nil {
		return wrap(err, s.deck.Prefix)
	}

	composition, err := cards.LoadComposition(s.deck.InputDir)
	if err != nil {
		return wrap(err, s.deck.Prefix)
	}

	document, err := cards.Compose(composition, fragments, header, s.deck.CSSFile)
	if err != nil {
		return wrap(err, s.deck.Prefix)
	}

	if err := cards.WriteDocument(s.deck.OutputPath, document); err != nil {
		return wrap(err, s.deck.Prefix)
	}

	s.log.Info(ctx, "rendered deck",
		"deck", s.deck.Prefix,
		"cards", len(fragments),
		"output", s.deck.OutputPath,
		"took", time.Since(start).String())

	return nil
}

// readHeader loads the optional custom header. A missing file means "no
// header" (nil), which the composer keeps distinct from an empty file.
func readHeader(path string) (*string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewReadError("reading custom header", err).WithPath(path)
	}

	content := string(data)

	return &content, nil
}

func wrap(err error, prefix string) error {
	var de *errors.DeckError
	if stderrors.As(err, &de) {
		return de.WithDeck(prefix)
	}

	return err
}

// RenderAll renders every session, logging failures without letting one
// deck's error stop the others.
func RenderAll(ctx context.Context, sessions []*Session, log logging.Logger) {
	for _, s := range sessions {
		if err := s.Render(ctx); err != nil {
			log.Error(ctx, err, "render failed", "deck", s.Deck().Prefix)
		}
	}
}
