package cards

import (
	"strconv"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/cardeck/cardeck/internal/errors"
)

// Injected context keys available to the card template beyond the row's
// own fields. Prefixed so they cannot collide with CSV column names in
// normal use.
const (
	ctxCardData = "__card_data"
	ctxTime     = "__time"
)

// LoadTemplate parses the single-card template at path.
func LoadTemplate(path string) (*pongo2.Template, error) {
	tpl, err := pongo2.FromFile(path)
	if err != nil {
		return nil, errors.NewRenderError("parsing card template", err).WithPath(path)
	}

	return tpl, nil
}

// Expand renders each row against the card template and repeats the result
// according to the row's directives, producing the ordered fragment list.
// Fragment order follows row order; copies of one row are contiguous.
//
// A row with ignore=true contributes nothing. A template evaluation error
// aborts the whole pass: unlike a malformed copy count, a broken template
// is not a per-row condition and silently dropping rows would mask it.
func Expand(rows []Row, tpl *pongo2.Template, now time.Time) ([]string, error) {
	fragments := make([]string, 0, len(rows))
	timestamp := strconv.FormatFloat(float64(now.UnixNano())/float64(time.Second), 'f', -1, 64)

	for _, row := range rows {
		directives := ExtractDirectives(row)
		if directives.Ignore {
			continue
		}

		ctx := make(pongo2.Context, len(row)+2)
		for name, value := range row {
			ctx[name] = value
		}
		ctx[ctxCardData] = row
		ctx[ctxTime] = timestamp

		rendered, err := tpl.Execute(ctx)
		if err != nil {
			return nil, errors.NewRenderError("rendering card", err)
		}

		for i := 0; i < directives.Copies; i++ {
			fragments = append(fragments, rendered)
		}
	}

	return fragments, nil
}
