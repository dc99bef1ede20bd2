// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package types contains shared types used across spindle packages:
// the error taxonomy, batch result reporting, and numeric helpers.
package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an error for callers that dispatch on failure class
// rather than message text.
type ErrorKind string

const (
	// KindNotFound indicates an unknown agent, behavior, strategy, domain,
	// or item id. Never silently defaulted.
	KindNotFound ErrorKind = "not_found"

	// KindValidation indicates input rejected before any mutation took place.
	KindValidation ErrorKind = "validation"

	// KindComputation indicates an aggregation or optimization step failed.
	// Callers treat this as "no result produced" at the failing granularity.
	KindComputation ErrorKind = "computation"

	// KindUnsupported indicates a strategy or format that is not registered.
	KindUnsupported ErrorKind = "unsupported"

	// KindStorage indicates a persistence adapter failure.
	KindStorage ErrorKind = "storage"
)

// Error is the structured error returned by synchronous spindle APIs.
// It carries the failure kind, the entity class involved (e.g. "agent",
// "strategy"), the entity id, and the underlying cause if any.
type Error struct {
	Kind   ErrorKind
	Entity string
	ID     string
	Msg    string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.ID != "":
		return fmt.Sprintf("%s %s %q: %s", e.Kind, e.Entity, e.ID, e.Msg)
	case e.Msg != "":
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Entity, e.Msg)
	case e.ID != "":
		return fmt.Sprintf("%s: %s %q", e.Kind, e.Entity, e.ID)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Entity)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same kind.
// Entity and ID are not compared so sentinel-style checks work:
//
//	errors.Is(err, &types.Error{Kind: types.KindNotFound})
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// NotFound builds a not-found error for the given entity and id.
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id}
}

// Validation builds a validation error.
func Validation(entity, msg string) *Error {
	return &Error{Kind: KindValidation, Entity: entity, Msg: msg}
}

// Computation wraps a failed computation step.
func Computation(entity, id string, err error) *Error {
	return &Error{Kind: KindComputation, Entity: entity, ID: id, Err: err, Msg: errMsg(err)}
}

// Unsupported builds an unsupported error (e.g. unknown strategy name).
func Unsupported(entity, id string) *Error {
	return &Error{Kind: KindUnsupported, Entity: entity, ID: id}
}

// Storage wraps a persistence adapter failure.
func Storage(entity string, err error) *Error {
	return &Error{Kind: KindStorage, Entity: entity, Err: err, Msg: errMsg(err)}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func errMsg(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ItemFailure records one failed item inside a batch operation.
type ItemFailure struct {
	// Key identifies the failed item (agent id, pattern id, etc).
	Key string
	// Err is the per-item failure.
	Err error
}

// BatchResult reports the outcome of a bulk operation. Per-item failures
// are collected rather than aborting the batch.
type BatchResult struct {
	Succeeded int
	Failures  []ItemFailure
}

// Failed reports whether any item in the batch failed.
func (r BatchResult) Failed() bool {
	return len(r.Failures) > 0
}
