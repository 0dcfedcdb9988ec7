package regexrisk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectBothShapes(t *testing.T) {
	f1 := Detect("(.*.*foo)")
	require.Len(t, f1, 1)
	require.Equal(t, ConsecutiveAnyWildcards, f1[0].Shape)

	f2 := Detect("(a+b+)+")
	require.Len(t, f2, 1)
	require.Equal(t, NestedRepeatingGroup, f2[0].Shape)
}

func TestDetectAllOrder(t *testing.T) {
	findings := DetectAll([]string{"(.*.*foo)", "(a+b+)+", "/safe/path"})
	require.Len(t, findings, 2)
	require.Equal(t, ConsecutiveAnyWildcards, findings[0].Shape)
	require.Equal(t, NestedRepeatingGroup, findings[1].Shape)
}

func TestDetectSafePattern(t *testing.T) {
	require.Empty(t, Detect("^/api/[a-z]+$"))
}
