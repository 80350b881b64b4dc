package areas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const mapping = `{
	"A01": ["B101", "B102"],
	"A02": ["B201"],
	"A03": []
}`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(mapping))
	require.NoError(t, err)

	require.Equal(t, []string{"A01", "A02", "A03"}, p.BackOfficeIDs())
	require.Equal(t, []string{"B101", "B102", "B201"}, p.AllBranches())
	require.Equal(t, []string{"B101", "B102"}, p.BranchesFor("A01"))
	require.Empty(t, p.BranchesFor("A03"))
	require.Nil(t, p.BranchesFor("ZZZ"))

	require.True(t, p.IsValidArea("A01"))
	require.True(t, p.IsValidArea("A03"))
	require.False(t, p.IsValidArea("ZZZ"))
	require.False(t, p.IsValidArea("ALL"))
}

func TestParseRejectsEmptyAndMalformed(t *testing.T) {
	_, err := Parse([]byte(`{}`))
	require.Error(t, err)

	_, err = Parse([]byte(`{"A01": "not-a-list"}`))
	require.Error(t, err)

	_, err = Parse([]byte(`not json`))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "area_branch.json")
	require.NoError(t, os.WriteFile(path, []byte(mapping), 0o644))

	p, err := LoadFile(path)
	require.NoError(t, err)
	require.True(t, p.IsValidArea("A02"))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestDedupAcrossAreas(t *testing.T) {
	p, err := Parse([]byte(`{"A01": ["B1", "B2"], "A02": ["B2", "B3"]}`))
	require.NoError(t, err)
	require.Equal(t, []string{"B1", "B2", "B3"}, p.AllBranches())
}
