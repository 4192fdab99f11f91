package cards

import (
	"bytes"

	"github.com/flosch/pongo2/v6"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

func init() {
	// Card text often carries lightweight markup; expose it as
	// {{ description | markdown }} in card templates.
	pongo2.RegisterFilter("markdown", filterMarkdown)
}

func filterMarkdown(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(in.String()), &buf); err != nil {
		return nil, &pongo2.Error{Sender: "filter:markdown", OrigError: err}
	}

	return pongo2.AsSafeValue(buf.String()), nil
}
