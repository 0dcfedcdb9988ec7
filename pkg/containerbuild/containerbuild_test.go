package containerbuild

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cloneforge/internal/ui"
)

type logObserver struct {
	ui.NullObserver
	lines []string
	phase []float64
}

func (o *logObserver) Log(msg string)           { o.lines = append(o.lines, msg) }
func (o *logObserver) Phase(name string, p float64) { o.phase = append(o.phase, p) }

func TestAtoiSafe(t *testing.T) {
	require.Equal(t, 42, atoiSafe("42"))
	require.Equal(t, 0, atoiSafe(""))
	require.Equal(t, 3, atoiSafe("3/ignored"))
}

func TestStreamBuildOutputParsesSteps(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(`{"stream":"Step 1/3 : FROM nginx:alpine\n"}`)
	buf.WriteString(`{"stream":"Step 2/3 : COPY . /usr/share/nginx/html\n"}`)

	obs := &logObserver{}
	err := streamBuildOutput(&buf, obs)
	require.NoError(t, err)
	require.Len(t, obs.phase, 2)
	require.InDelta(t, 1.0/3, obs.phase[0], 0.001)
}

func TestStreamBuildOutputSurfacesErrorDetail(t *testing.T) {
	r := strings.NewReader(`{"errorDetail":{"message":"boom"}}`)
	obs := &logObserver{}
	err := streamBuildOutput(r, obs)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestTarDirectoryIncludesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a.txt"), []byte("x"), 0o644))

	r, err := tarDirectory(dir)
	require.NoError(t, err)

	tr := tar.NewReader(r)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	require.Contains(t, names, "Dockerfile")
	require.Contains(t, names, "sub/a.txt")
}

func TestItoa(t *testing.T) {
	require.Equal(t, "8080", itoa(8080))
}
