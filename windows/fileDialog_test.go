package windows

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileCandidates(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.share", "a.JSON", "notes.md", ".hidden.share", "perfil.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "zeta"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	got, err := profileCandidates(dir)
	require.NoError(t, err)
	assert.Equal(t, []profileEntry{
		{name: "zeta", dir: true},
		{name: "a.JSON"},
		{name: "b.share"},
		{name: "perfil.txt"},
	}, got)

	_, err = profileCandidates(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
