package mirror

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cloneforge/pkg/config"
)

func TestBuildArgsIncludesCoreFlags(t *testing.T) {
	cfg := config.Defaults()
	cfg.URL = "https://example.com"
	args := BuildArgs(cfg, "/tmp/out")

	require.Contains(t, args, "--mirror")
	require.Contains(t, args, "--convert-links")
	require.Contains(t, args, "--directory-prefix=/tmp/out")
	require.Equal(t, "https://example.com", args[len(args)-1])
}

func TestBuildArgsOptionalFlags(t *testing.T) {
	cfg := config.Defaults()
	cfg.URL = "https://example.com"
	cfg.Jobs = 8
	cfg.SizeCapBytes = 1024
	cfg.ThrottleBytesPerSec = 512
	cfg.AuthUser = "u"
	cfg.AuthPass = "p"
	cfg.Incremental = true

	args := BuildArgs(cfg, "/tmp/out")
	require.Contains(t, args, "--max-threads=8")
	require.Contains(t, args, "--quota=1024")
	require.Contains(t, args, "--limit-rate=512")
	require.Contains(t, args, "--http-user=u")
	require.Contains(t, args, "--http-password=p")
	require.Contains(t, args, "--timestamping")
}

func TestSanitizeCommandMasksPassword(t *testing.T) {
	args := []string{"--http-user=u", "--http-password=secret", "https://example.com"}
	out := SanitizeCommand("wget2", args)
	require.Contains(t, out, "--http-password=***")
	require.NotContains(t, out, "--http-password=secret")
}

func TestParseProgress(t *testing.T) {
	pct, rate, ok := parseProgress("Downloaded: 42% 1.2MB/s")
	require.True(t, ok)
	require.Equal(t, 42, pct)
	require.Equal(t, "1.2MB/s", rate)

	_, _, ok = parseProgress("no numbers here")
	require.False(t, ok)
}

func TestRingBounded(t *testing.T) {
	r := newRing(3)
	for i := 0; i < 5; i++ {
		r.add(string(rune('a' + i)))
	}
	require.Equal(t, []string{"c", "d", "e"}, r.lines())
}

func TestWriteNetscapeCookieFile(t *testing.T) {
	dir := t.TempDir()
	dest := dir + "/imported_cookies.txt"
	err := WriteNetscapeCookieFile(dest, []Cookie{
		{Domain: ".example.com", Path: "/", Secure: true, Expires: time.Unix(2000000000, 0), Name: "sid", Value: "abc"},
	})
	require.NoError(t, err)
}

func TestClassifyMapsMissingBinary(t *testing.T) {
	res := Result{Bin: "wget2", ExitCode: -1, Err: &notFoundErr{}}
	err := Classify(res)
	require.Error(t, err)
}

type notFoundErr struct{}

func (e *notFoundErr) Error() string { return "exec: \"wget2\": executable file not found in $PATH" }
