package fingerprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestInScope(t *testing.T) {
	require.True(t, InScope("index.html", nil))
	require.True(t, InScope("about.htm", nil))
	require.True(t, InScope("_api/users.json", nil))
	require.False(t, InScope("data/thing.json", nil))
	require.True(t, InScope("style.css", map[string]bool{".css": true}))
	require.False(t, InScope("style.css", nil))
}

func TestFirstRunProducesNoDiffArtifact(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"index.html": "<html>1</html>"})

	cur, err := NewState(root)
	require.NoError(t, err)

	// First run: no prior state exists.
	prev, err := LoadState(filepath.Join(root, ".cloneforge", "state.json"))
	require.NoError(t, err)
	require.Nil(t, prev)

	diff := Compare(prev, cur)
	require.True(t, diff.IsEmpty())
}

func TestSecondRunNoChanges(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"index.html": "<html>1</html>", "a.json": "{}"})

	s1, err := NewState(root)
	require.NoError(t, err)

	s2, err := NewState(root)
	require.NoError(t, err)

	diff := Compare(s1, s2)
	require.Empty(t, diff.Added)
	require.Empty(t, diff.Removed)
	require.Empty(t, diff.Modified)
	require.Equal(t, len(s2.Files), diff.UnchangedCount)
	require.Equal(t, len(s2.Files), diff.TotalCurrent)
}

func TestDiffRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.html": "<html>1</html>",
		"old.html":   "<html>old</html>",
		"same.html":  "<html>same</html>",
	})
	s1, err := NewState(root)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "old.html")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>2</html>"), 0o644))
	writeTree(t, root, map[string]string{"new.html": "<html>new</html>"})

	s2, err := NewState(root)
	require.NoError(t, err)

	diff := Compare(s1, s2)
	require.ElementsMatch(t, []string{"new.html"}, diff.Added)
	require.ElementsMatch(t, []string{"old.html"}, diff.Removed)
	require.ElementsMatch(t, []string{"index.html"}, diff.Changed)
	require.Len(t, diff.Modified, 1)
	require.Equal(t, "index.html", diff.Modified[0].Path)

	total := len(diff.Added) + len(diff.Modified) + diff.UnchangedCount
	require.Equal(t, diff.TotalCurrent, total)

	for _, path := range diff.Changed {
		found := false
		for _, m := range diff.Modified {
			if m.Path == path {
				found = true
				require.NotEqual(t, m.OldHash, m.NewHash)
			}
		}
		require.True(t, found)
	}
}

func TestChecksumsSkipsUnreadable(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"index.html": "hi"})
	sums := Checksums(root, []string{"index.html", "missing.html"}, nil, nil)
	require.Contains(t, sums, "index.html")
	require.NotContains(t, sums, "missing.html")
}
