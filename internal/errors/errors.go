// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package errors defines the typed error taxonomy used to map failures onto
// cloneforge's exit-code contract.
//
// The shape (title/detail/hint constructors plus a single FatalError sink)
// mirrors the call pattern visible throughout the teacher's cmd/cie/*.go
// (errors.NewInputError, errors.NewInternalError, errors.FatalError), whose
// own internal/errors package was not present in the retrieval pack.
package errors

import (
	"encoding/json"
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an error onto the exit-code taxonomy from spec.md §4.1/§7.
type Kind int

const (
	KindGeneric Kind = iota
	KindConfig
	KindDependencyMissing
	KindVerificationFailed
	KindCanceled
	KindSelftestFailed
)

// Exit codes, per spec.md §4.1.
const (
	ExitSuccess          = 0
	ExitGenericFailure   = 1
	ExitWgetMissing      = 12
	ExitDockerUnavail    = 13
	ExitVerifyFailed     = 14
	ExitCanceled         = 15
	ExitConfigError      = 16
	ExitSelftestFailed   = 17
)

// CloneError is the typed error carried through the pipeline. Title is a
// short one-line summary, Detail expands on it, Hint suggests a fix. Cause
// is preserved via github.com/pkg/errors so %+v prints a stack trace.
type CloneError struct {
	Kind   Kind
	Title  string
	Detail string
	Hint   string
	Cause  error
}

func (e *CloneError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return e.Title
}

func (e *CloneError) Unwrap() error { return e.Cause }

// ExitCode maps the error's Kind onto the process exit-code contract.
func (e *CloneError) ExitCode() int {
	switch e.Kind {
	case KindConfig:
		return ExitConfigError
	case KindDependencyMissing:
		return ExitWgetMissing
	case KindVerificationFailed:
		return ExitVerifyFailed
	case KindCanceled:
		return ExitCanceled
	case KindSelftestFailed:
		return ExitSelftestFailed
	default:
		return ExitGenericFailure
	}
}

func wrap(cause error) error {
	if cause == nil {
		return nil
	}
	return pkgerrors.WithStack(cause)
}

// NewConfigError builds a configuration-taxonomy error (missing URL,
// missing destination, invalid bind IP, build without image name, ...).
func NewConfigError(title, detail, hint string) *CloneError {
	return &CloneError{Kind: KindConfig, Title: title, Detail: detail, Hint: hint}
}

// NewDependencyMissingError builds a dependency-missing-taxonomy error
// (mirror tool absent, container builder absent).
func NewDependencyMissingError(title, detail, hint string, cause error) *CloneError {
	return &CloneError{Kind: KindDependencyMissing, Title: title, Detail: detail, Hint: hint, Cause: wrap(cause)}
}

// NewVerificationError builds a verification-taxonomy error.
func NewVerificationError(title, detail string) *CloneError {
	return &CloneError{Kind: KindVerificationFailed, Title: title, Detail: detail}
}

// NewCancellationError builds a cancellation-taxonomy error.
func NewCancellationError(phase string) *CloneError {
	return &CloneError{Kind: KindCanceled, Title: "canceled", Detail: fmt.Sprintf("run canceled during phase %q", phase)}
}

// NewInternalError builds a generic-failure-taxonomy error for unexpected
// conditions that are not the user's fault.
func NewInternalError(title, detail, hint string, cause error) *CloneError {
	return &CloneError{Kind: KindGeneric, Title: title, Detail: detail, Hint: hint, Cause: wrap(cause)}
}

// NewSelftestError builds a selftest-taxonomy error.
func NewSelftestError(title, detail string) *CloneError {
	return &CloneError{Kind: KindSelftestFailed, Title: title, Detail: detail}
}

// AsCloneError extracts a *CloneError from err, wrapping generic errors as
// KindGeneric if necessary.
func AsCloneError(err error) *CloneError {
	if err == nil {
		return nil
	}
	var ce *CloneError
	if ok := pkgerrors.As(err, &ce); ok {
		return ce
	}
	return &CloneError{Kind: KindGeneric, Title: "unexpected error", Detail: err.Error(), Cause: err}
}

type jsonError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// FatalError prints err to stderr (plain or JSON per jsonMode) and exits the
// process with the mapped exit code. It never returns.
func FatalError(err error, jsonMode bool) {
	ce := AsCloneError(err)
	if jsonMode {
		payload := jsonError{Error: ce.Title, Detail: ce.Detail, Hint: ce.Hint}
		enc, encErr := json.Marshal(payload)
		if encErr == nil {
			fmt.Fprintln(os.Stderr, string(enc))
		}
	} else {
		fmt.Fprintf(os.Stderr, "error: %s\n", ce.Title)
		if ce.Detail != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", ce.Detail)
		}
		if ce.Hint != "" {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", ce.Hint)
		}
	}
	os.Exit(ce.ExitCode())
}
