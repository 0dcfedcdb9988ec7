package errors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindGeneric, ExitGenericFailure},
		{KindConfig, ExitConfigError},
		{KindDependencyMissing, ExitWgetMissing},
		{KindVerificationFailed, ExitVerifyFailed},
		{KindCanceled, ExitCanceled},
		{KindSelftestFailed, ExitSelftestFailed},
	}
	for _, c := range cases {
		e := &CloneError{Kind: c.kind, Title: "x"}
		require.Equal(t, c.want, e.ExitCode())
	}
}

func TestAsCloneErrorWrapsGeneric(t *testing.T) {
	ce := AsCloneError(errPlain("boom"))
	require.Equal(t, KindGeneric, ce.Kind)
	require.Equal(t, ExitGenericFailure, ce.ExitCode())
}

func TestAsCloneErrorPassesThroughTyped(t *testing.T) {
	orig := NewConfigError("bad config", "missing url", "pass --url")
	ce := AsCloneError(orig)
	require.Same(t, orig, ce)
}

type errPlain string

func (e errPlain) Error() string { return string(e) }
