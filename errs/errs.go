// Package errs collects the error taxonomy shared across envres's
// subpackages: configuration errors, source errors, and resolution
// errors. Each is a concrete type implementing error so callers can use
// errors.As to recover structured fields, in the same sentinel-plus-wrap
// style the rest of this module uses.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfigNotFound mirrors the file-not-found sentinel used throughout
// the loading path; non-fatal wherever a file is merely one of several
// candidate sources.
var ErrConfigNotFound = errors.New("configuration file not found")

// ConfigError wraps a generic configuration problem with an optional
// originating path.
type ConfigError struct {
	Message string
	Path    string
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config error at %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// MissingConfigError indicates a required configuration field was not set.
type MissingConfigError struct {
	Field      string
	Suggestion string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing required config field %q: %s", e.Field, e.Suggestion)
}

// UnknownProviderError indicates an unrecognized workspace provider name.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown workspace provider %q", e.Provider)
}

// InvalidGlobError indicates a glob pattern failed to compile.
type InvalidGlobError struct {
	Pattern string
	Reason  string
}

func (e *InvalidGlobError) Error() string {
	return fmt.Sprintf("invalid glob pattern %q: %s", e.Pattern, e.Reason)
}

// WorkspaceNotFoundError indicates no workspace root could be located.
type WorkspaceNotFoundError struct {
	SearchPath string
}

func (e *WorkspaceNotFoundError) Error() string {
	return fmt.Sprintf("no workspace found searching from %q", e.SearchPath)
}

// ProviderConfigNotFoundError indicates a provider's expected marker file
// is absent.
type ProviderConfigNotFoundError struct {
	ExpectedFile string
	SearchPath   string
}

func (e *ProviderConfigNotFoundError) Error() string {
	return fmt.Sprintf("expected %q under %q was not found", e.ExpectedFile, e.SearchPath)
}

// ProviderConfigParseError indicates a provider's marker file exists but
// failed to parse.
type ProviderConfigParseError struct {
	Path   string
	Reason string
}

func (e *ProviderConfigParseError) Error() string {
	return fmt.Sprintf("failed to parse %q: %s", e.Path, e.Reason)
}

// SourceError wraps failures originating from a Source implementation.
type SourceError struct {
	Kind   SourceErrorKind
	Path   string
	Line   int
	Msg    string
	Source error
}

type SourceErrorKind int

const (
	SourceRead SourceErrorKind = iota
	SourceParse
	SourceRemote
	SourceTimeout
	SourceAuthentication
	SourcePermission
	SourceUnsupportedOperation
)

func (e *SourceError) Error() string {
	switch e.Kind {
	case SourceParse:
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Msg)
	case SourceRemote:
		return fmt.Sprintf("remote source %q: %s", e.Path, e.Msg)
	case SourceTimeout:
		return "source operation timed out"
	case SourceAuthentication:
		return "source authentication failed"
	case SourcePermission:
		return "source operation not permitted"
	case SourceUnsupportedOperation:
		return fmt.Sprintf("unsupported operation: %s", e.Msg)
	default:
		return fmt.Sprintf("failed to read source %s: %s", e.Path, e.Msg)
	}
}

func (e *SourceError) Unwrap() error { return e.Source }

// CircularDependencyError reports a cycle discovered while resolving
// interpolation dependencies. Chain is the depth-first search path as
// traversed, followed by the key whose revisit closed the cycle (for
// A -> B -> A the chain is [A, B, A]).
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Chain, " -> "))
}

// MaxDepthExceededError reports an interpolation chain deeper than the
// configured maximum.
type MaxDepthExceededError struct {
	Key   string
	Depth int
}

func (e *MaxDepthExceededError) Error() string {
	return fmt.Sprintf("max interpolation depth exceeded for %q at depth %d", e.Key, e.Depth)
}

// UndefinedVariableError reports a lookup for a key with no contributing
// source. Interpolation itself never raises this (an unresolved
// reference is left as a literal token); it is raised from direct key
// resolution when no source defines the requested key.
type UndefinedVariableError struct {
	Key string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Key)
}
