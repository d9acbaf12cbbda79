// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package model drives a local llama-server instance: launching it from a
// GGUF model file when needed and streaming completions from it. The token
// stream is finite and not restartable; fragments are delivered in emission
// order to a caller-supplied sink.
package model

import "fmt"

// ErrorKind classifies a model failure.
type ErrorKind string

const (
	KindLoadFailure      ErrorKind = "load_failure"
	KindInferenceTimeout ErrorKind = "inference_timeout"
	KindInference        ErrorKind = "inference_failure"
)

// ModelError reports a model collaborator failure. Load failures abort the
// run before any seed URL is processed; inference failures are scoped to a
// single draft variant.
type ModelError struct {
	Kind ErrorKind
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model: %s: %v", e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }
