package integrity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseResultLineFirstWins(t *testing.T) {
	out := "noise\nOK=1 Missing=0 Mismatched=0 Total=1\nOK=9 Missing=9 Mismatched=9 Total=9\n"
	r, ok := ParseResultLine(out)
	require.True(t, ok)
	require.Equal(t, 1, r.OK)
	require.Equal(t, 1, r.Total)
}

func TestFormatResultLineRoundTrip(t *testing.T) {
	r := Result{OK: 2, Missing: 1, Mismatched: 0, Total: 3}
	line := FormatResultLine(r)
	got, ok := ParseResultLine(line)
	require.True(t, ok)
	require.Equal(t, r, got)
}

func TestVerifyDeepDetectsMismatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("hello"), 0o644))

	sums, err := ComputeChecksums(root, nil, nil, nil)
	require.NoError(t, err)
	require.Contains(t, sums, "index.html")

	r := Verify(root, sums, true)
	require.True(t, r.Passed())

	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("changed"), 0o644))
	r2 := Verify(root, sums, true)
	require.False(t, r2.Passed())
	require.Equal(t, 1, r2.Mismatched)
}

func TestVerifyFastDetectsTamperWithoutTruncation(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("hello"), 0o644))

	sums, err := ComputeChecksums(root, nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("tampered"), 0o644))
	r := Verify(root, sums, false)
	require.False(t, r.Passed())
	require.Equal(t, 1, r.Mismatched)
	require.True(t, r.FastMissing)
}

func TestVerifyFlagsMissing(t *testing.T) {
	root := t.TempDir()
	r := Verify(root, map[string]string{"gone.html": "deadbeef"}, true)
	require.Equal(t, 1, r.Missing)
	require.False(t, r.Passed())
}

func TestSelftestPasses(t *testing.T) {
	require.NoError(t, Selftest())
}

func TestWriteVerifyScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteVerifyScript(dir))
	info, err := os.Stat(filepath.Join(dir, "verify_checksums.sh"))
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o100)
}

func TestAppendReadmeSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(path, []byte("# Site\n"), 0o644))
	require.NoError(t, AppendReadmeSection(path, Result{OK: 1, Total: 1}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "### Verification Result")
}
