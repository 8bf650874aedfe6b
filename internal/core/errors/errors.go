// Package errors provides centralized error definitions for the pipeline.
// Errors are organized by domain to avoid duplication and provide consistent
// naming.
//
// Naming conventions:
//   - Exported errors (Err*): for errors that callers check with errors.Is
//   - All sentinel errors are variables, never inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Provider resolution errors. Both are scoped to a single media kind: the
// run continues for the remaining kinds.
var (
	// ErrProviderMismatch indicates an explicit override provider is
	// inactive or lacks the capability for the requested kind.
	ErrProviderMismatch = errors.New("override provider cannot serve media kind")

	// ErrNoProviderAvailable indicates no active provider supports a kind.
	ErrNoProviderAvailable = errors.New("no provider available for media kind")
)

// LLM call errors.
var (
	// ErrLLMCall indicates a transport-level failure (timeout, HTTP error,
	// auth failure) for one kind's dispatch.
	ErrLLMCall = errors.New("llm call failed")

	// ErrEmptyResponse indicates the provider returned no choices/content.
	ErrEmptyResponse = errors.New("empty response")

	// ErrResponseParse indicates the call succeeded transport-wise but the
	// payload was not valid JSON. Callers degrade to raw-payload capture.
	ErrResponseParse = errors.New("response is not valid JSON")
)

// Persistence errors.
var (
	// ErrPersistence indicates the analysis record could not be saved.
	// Fatal for the run; the checkpoint must not advance.
	ErrPersistence = errors.New("persistence failed")

	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownMediaKind indicates an unrecognized media kind value.
	ErrUnknownMediaKind = errors.New("unknown media kind")

	// ErrMissingCredential indicates a provider credential reference could
	// not be resolved.
	ErrMissingCredential = errors.New("credential reference not resolvable")
)
