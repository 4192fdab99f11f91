package cards

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeDefaultTemplate(t *testing.T) {
	tpl, err := LoadComposition(t.TempDir())
	require.NoError(t, err)

	doc, err := Compose(tpl, []string{"<div>Ace</div>", "<div>Queen</div>"}, nil, "deck.css")
	require.NoError(t, err)

	assert.Contains(t, doc, "<div>Ace</div>")
	assert.Contains(t, doc, "<div>Queen</div>")
	assert.Contains(t, doc, `href="deck.css"`)
	assert.Less(t, strings.Index(doc, "Ace"), strings.Index(doc, "Queen"))
}

func TestComposeMissingHeaderDistinctFromEmpty(t *testing.T) {
	dir := t.TempDir()
	tpl, err := LoadComposition(dir)
	require.NoError(t, err)

	empty := ""
	withEmpty, err := Compose(tpl, nil, &empty, "deck.css")
	require.NoError(t, err)

	withAbsent, err := Compose(tpl, nil, nil, "deck.css")
	require.NoError(t, err)

	assert.NotEqual(t, withEmpty, withAbsent)
	assert.Contains(t, withAbsent, "no custom header")
	assert.NotContains(t, withEmpty, "no custom header")
}

func TestComposeCustomHeader(t *testing.T) {
	tpl, err := LoadComposition(t.TempDir())
	require.NoError(t, err)

	header := `<meta name="author" content="me">`
	doc, err := Compose(tpl, nil, &header, "deck.css")
	require.NoError(t, err)

	assert.Contains(t, doc, header)
}

func TestComposeIsIdempotent(t *testing.T) {
	tpl, err := LoadComposition(t.TempDir())
	require.NoError(t, err)

	fragments := []string{"<div>A</div>", "<div>A</div>"}
	first, err := Compose(tpl, fragments, nil, "x.css")
	require.NoError(t, err)
	second, err := Compose(tpl, fragments, nil, "x.css")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoadCompositionLocalOverride(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, CompositionName)
	require.NoError(t, os.WriteFile(local, []byte("cards:{{ rendered_cards|length }}"), 0o644))

	tpl, err := LoadComposition(dir)
	require.NoError(t, err)

	doc, err := Compose(tpl, []string{"a", "b"}, nil, "x.css")
	require.NoError(t, err)
	assert.Equal(t, "cards:2", doc)
}

func TestWriteDocumentOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")

	require.NoError(t, WriteDocument(path, "first"))
	require.NoError(t, WriteDocument(path, "second"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestWriteDocumentLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")

	require.NoError(t, WriteDocument(path, "content"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "index.html", entries[0].Name())
}

func TestMarkdownFilter(t *testing.T) {
	tpl := mustTemplate(t, "{{ text|markdown }}")

	out, err := tpl.Execute(map[string]interface{}{"text": "**bold**"})
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>bold</strong>")
}
