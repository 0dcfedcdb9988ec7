package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReproduceCommandDeterministic(t *testing.T) {
	cfg := Defaults()
	cfg.URL = "https://example.com"
	cfg.DestBase = "/tmp/out"
	cfg.Prerender = true
	cfg.CaptureAPI = true
	cfg.Checksums = true
	cfg.VerifyAfter = true
	cfg.Incremental = true
	cfg.DiffLatest = true
	cfg.DisableJS = true
	cfg.RouterAllow = []string{"/api", "/x"}
	cfg.RouterDeny = []string{"/ignore"}

	tok1 := ReproduceCommand(cfg)
	tok2 := ReproduceCommand(cfg)
	require.Equal(t, tok1, tok2)

	expectedOrder := []string{
		"--prerender",
		"--capture-api",
		"--checksums",
		"--verify-after",
		"--incremental",
		"--diff-latest",
		"--disable-js",
		"--router-allow=/api,/x",
		"--router-deny=/ignore",
	}
	require.Subset(t, tok1, expectedOrder)

	positions := make(map[string]int, len(tok1))
	for i, tok := range tok1 {
		positions[tok] = i
	}
	last := -1
	for _, tok := range expectedOrder {
		pos, ok := positions[tok]
		require.True(t, ok, "expected token %q in repro command", tok)
		require.Greater(t, pos, last, "token %q out of order", tok)
		last = pos
	}
}

func TestReproduceCommandOmitsDefaults(t *testing.T) {
	cfg := Defaults()
	cfg.URL = "https://example.com"
	cfg.DestBase = "/tmp/out"

	tok := ReproduceCommand(cfg)
	for _, t2 := range tok {
		require.NotContains(t, t2, "--jobs=4")
		require.NotContains(t, t2, "--host-port=8080")
	}
}
