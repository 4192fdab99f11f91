package cards

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardeck/cardeck/internal/errors"
)

func mustTemplate(t *testing.T, source string) *pongo2.Template {
	t.Helper()
	tpl, err := pongo2.FromString(source)
	require.NoError(t, err)

	return tpl
}

func TestExpandBasicDeck(t *testing.T) {
	rows := []Row{
		{"name": "Ace", "num_cards": "2", "ignore": ""},
		{"name": "King", "num_cards": "", "ignore": "true"},
		{"name": "Queen", "num_cards": "1", "ignore": "false"},
	}
	tpl := mustTemplate(t, "<div>{{ name }}</div>")

	fragments, err := Expand(rows, tpl, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"<div>Ace</div>",
		"<div>Ace</div>",
		"<div>Queen</div>",
	}, fragments)
}

func TestExpandIgnoreBeatsCopies(t *testing.T) {
	rows := []Row{{"name": "Ace", "ignore": "TRUE", "num_cards": "10"}}
	tpl := mustTemplate(t, "{{ name }}")

	fragments, err := Expand(rows, tpl, time.Now())
	require.NoError(t, err)
	assert.Empty(t, fragments)
}

func TestExpandZeroCopies(t *testing.T) {
	rows := []Row{
		{"name": "Ace", "num_cards": "0"},
		{"name": "King", "num_cards": "1"},
	}
	tpl := mustTemplate(t, "{{ name }}")

	fragments, err := Expand(rows, tpl, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"King"}, fragments)
}

func TestExpandCopiesAreContiguous(t *testing.T) {
	rows := []Row{
		{"name": "A", "num_cards": "3"},
		{"name": "B", "num_cards": "2"},
	}
	tpl := mustTemplate(t, "{{ name }}")

	fragments, err := Expand(rows, tpl, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "A", "A", "B", "B"}, fragments)
}

func TestExpandInjectedContext(t *testing.T) {
	rows := []Row{{"name": "Ace"}}
	tpl := mustTemplate(t, "{{ __card_data.name }}@{{ __time }}")

	now := time.Unix(1700000000, 0)
	fragments, err := Expand(rows, tpl, now)
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	assert.Equal(t, "Ace@1700000000", fragments[0])
}

func init() {
	// A filter that always fails, to provoke execution-time errors.
	pongo2.RegisterFilter("alwaysfail", func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		return nil, &pongo2.Error{Sender: "filter:alwaysfail", OrigError: stderrors.New("boom")}
	})
}

func TestExpandTemplateErrorAborts(t *testing.T) {
	rows := []Row{{"name": "Ace"}}
	tpl := mustTemplate(t, "{{ name|alwaysfail }}")

	_, err := Expand(rows, tpl, time.Now())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRender))
}

func TestExpandNoRows(t *testing.T) {
	tpl := mustTemplate(t, "{{ name }}")

	fragments, err := Expand(nil, tpl, time.Now())
	require.NoError(t, err)
	assert.Empty(t, fragments)
}
