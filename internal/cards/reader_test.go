package cards

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardeck/cardeck/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestReadRows(t *testing.T) {
	path := writeFile(t, "cards.csv", "name,cost\nAce,1\nKing,2\n")

	rows, err := ReadRows(path, ',')
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"name": "Ace", "cost": "1"}, rows[0])
	assert.Equal(t, Row{"name": "King", "cost": "2"}, rows[1])
}

func TestReadRowsStripsBOM(t *testing.T) {
	path := writeFile(t, "cards.csv", "\xef\xbb\xbfname\nAce\n")

	rows, err := ReadRows(path, ',')
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ace", rows[0]["name"])
}

func TestReadRowsCustomDelimiter(t *testing.T) {
	path := writeFile(t, "cards.csv", "name;cost\nAce;1\n")

	rows, err := ReadRows(path, ';')
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{"name": "Ace", "cost": "1"}, rows[0])
}

func TestReadRowsShortRecordPads(t *testing.T) {
	path := writeFile(t, "cards.csv", "name,cost,notes\nAce,1\n")

	rows, err := ReadRows(path, ',')
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0]["notes"])
}

func TestReadRowsLongRecordFails(t *testing.T) {
	path := writeFile(t, "cards.csv", "name\nAce,extra\n")

	_, err := ReadRows(path, ',')
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRead))
}

func TestReadRowsMissingFile(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "nope.csv"), ',')
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRead))
}

func TestReadRowsEmptyFile(t *testing.T) {
	path := writeFile(t, "cards.csv", "")

	rows, err := ReadRows(path, ',')
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadRowsHeaderOnly(t *testing.T) {
	path := writeFile(t, "cards.csv", "name,cost\n")

	rows, err := ReadRows(path, ',')
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadRowsFreshRead(t *testing.T) {
	path := writeFile(t, "cards.csv", "name\nAce\n")

	rows, err := ReadRows(path, ',')
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, os.WriteFile(path, []byte("name\nAce\nKing\n"), 0o644))

	rows, err = ReadRows(path, ',')
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
