package deck

import (
	"context"
	"os"
	"regexp"

	"github.com/cardeck/cardeck/internal/errors"
	"github.com/cardeck/cardeck/internal/logging"
)

// DiscoveryOptions are the path templates an identifier is substituted
// into. Each may contain the "{}" placeholder.
type DiscoveryOptions struct {
	Prefix       string
	RenderedFile string
	CSVFile      string
	CSSFile      string
}

// Discover scans dir's direct entries for card template files matching
// pattern and constructs one deck per captured identifier. The pattern
// must contain at least one capturing group; the first group is the
// identifier. Entries yielding the same identifier collapse to one deck,
// last match winning, which is logged rather than treated as an error.
func Discover(ctx context.Context, dir, pattern string, opts DiscoveryOptions, log logging.Logger) (map[string]Deck, error) {
	re, err := regexp.Compile("^" + pattern)
	if err != nil {
		return nil, errors.NewConfigError("invalid discovery pattern", err)
	}
	if re.NumSubexp() < 1 {
		return nil, errors.NewConfigError("discovery pattern has no capturing group", nil)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewConfigError("listing assets directory", err).WithPath(dir)
	}

	decks := make(map[string]Deck)
	for _, entry := range entries {
		m := re.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}

		id := m[1]
		if _, dup := decks[id]; dup && log != nil {
			log.Warn(ctx, nil, "duplicate deck identifier, keeping last match",
				"identifier", id, "file", entry.Name())
		}

		decks[id] = New(dir,
			expand(opts.Prefix, id),
			expand(opts.RenderedFile, id),
			expand(opts.CSVFile, id),
			expand(opts.CSSFile, id),
		)
	}

	return decks, nil
}
