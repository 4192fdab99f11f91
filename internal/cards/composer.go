package cards

import (
	"os"
	"path/filepath"

	"github.com/flosch/pongo2/v6"

	"github.com/cardeck/cardeck/assets"
	"github.com/cardeck/cardeck/internal/errors"
)

// CompositionName is the filename of a deck-local composition template
// that overrides the embedded default.
const CompositionName = "cards.html.jinja2"

// LoadComposition returns the composition template for a deck: the
// deck directory's own cards.html.jinja2 when present, otherwise the
// embedded default.
func LoadComposition(deckDir string) (*pongo2.Template, error) {
	local := filepath.Join(deckDir, CompositionName)
	if _, err := os.Stat(local); err == nil {
		tpl, err := pongo2.FromFile(local)
		if err != nil {
			return nil, errors.NewRenderError("parsing composition template", err).WithPath(local)
		}
		return tpl, nil
	}

	tpl, err := pongo2.FromString(assets.CardsTemplate)
	if err != nil {
		return nil, errors.NewRenderError("parsing embedded composition template", err)
	}

	return tpl, nil
}

// Compose renders the final document from the ordered fragments, the
// optional custom header, and the stylesheet reference. A nil header is
// passed to the template as None so it stays distinguishable from an
// existing-but-empty header file.
func Compose(tpl *pongo2.Template, fragments []string, header *string, cssFile string) (string, error) {
	ctx := pongo2.Context{
		"rendered_cards": fragments,
		"css_file":       cssFile,
	}
	if header != nil {
		ctx["custom_header"] = *header
	} else {
		ctx["custom_header"] = nil
	}

	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", errors.NewRenderError("composing document", err)
	}

	return out, nil
}

// WriteDocument writes the composed document to path atomically: the
// content goes to a temp file in the same directory which is then renamed
// over the target, so a concurrent reader never observes a partial write.
func WriteDocument(path, content string) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".cardeck-*.tmp")
	if err != nil {
		return errors.NewIOError("creating temp document", err).WithPath(path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewIOError("writing document", err).WithPath(path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError("closing temp document", err).WithPath(path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError("setting document permissions", err).WithPath(path)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError("replacing document", err).WithPath(path)
	}

	return nil
}
