package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cloneforge/pkg/integrity"
)

func TestSumTimingsExcludesTotal(t *testing.T) {
	got := sumTimings(map[string]float64{"clone": 1.5, "build": 2.0, "total": 999})
	require.InDelta(t, 3.5, got, 0.0001)
}

func TestBoolToInt(t *testing.T) {
	require.Equal(t, 1, boolToInt(true))
	require.Equal(t, 0, boolToInt(false))
}

func TestVerifyStatus(t *testing.T) {
	require.Equal(t, "passed", verifyStatus(integrity.Result{OK: 1, Total: 1}))
	require.Equal(t, "failed", verifyStatus(integrity.Result{Missing: 1, Total: 1}))
}

func TestNewRunIDIsNonEmpty(t *testing.T) {
	id := NewRunID()
	require.NotEmpty(t, id)
}
