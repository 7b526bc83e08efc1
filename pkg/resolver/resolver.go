// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resolver turns a Task's map of ArgumentValue descriptors into a
// concrete map[string]any ready to pass to a tool invocation.
//
// Three expression forms resolve through the same path-navigation code:
//
//   - a bare reference, e.g. "task1.output.path" or "task1[0][\"key\"]"
//   - a template literal containing one or more ${...} interpolations
//   - the legacy "$OUTPUT[task1].output.path" form, rewritten to the first
//     form by parseLegacyOutputRef before evaluation
package resolver

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

// Scope is the lookup context an ArgumentValue resolves against.
type Scope struct {
	// Parameters holds named values addressable via ArgumentKindParameter,
	// i.e. executionContext.parameters.
	Parameters map[string]any
	// Results holds prior TaskResult.Output values keyed by TaskID,
	// addressable via reference expressions rooted at the task ID.
	Results map[string]any
	// Context is the execution context itself, consulted as a fallback once
	// a parameter name or a reference root isn't found in Parameters/Results.
	Context map[string]any
}

// UnresolvedReferenceError is returned when an expression is malformed
// (bad syntax, an empty root, an unknown argument kind) rather than merely
// pointing at something absent. Malformed input fails the owning task.
type UnresolvedReferenceError struct {
	Expression string
	Detail     string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("resolver: cannot resolve %q: %s", e.Expression, e.Detail)
}

// Recoverable reports true: an unresolved reference fails the owning task
// but does not halt the workflow.
func (e *UnresolvedReferenceError) Recoverable() bool { return true }

var _ workflow.RecoverableError = (*UnresolvedReferenceError)(nil)

// errOmit is a sentinel returned internally when a lookup or a navigation
// step finds nothing. It is never fatal: ResolveArguments drops the
// argument key instead of failing the task, and template interpolation
// renders it as an empty string.
var errOmit = &omittedError{}

type omittedError struct{}

func (*omittedError) Error() string { return "resolver: omitted" }

// Resolve evaluates a single ArgumentValue against scope. It returns
// errOmit when the value is absent rather than malformed.
func Resolve(v workflow.ArgumentValue, scope Scope) (any, error) {
	switch v.Kind {
	case workflow.ArgumentKindLiteral:
		return v.Literal, nil
	case workflow.ArgumentKindParameter:
		if val, ok := scope.Parameters[v.ParameterName]; ok {
			return val, nil
		}
		if val, ok := scope.Context[v.ParameterName]; ok {
			return val, nil
		}
		return nil, errOmit
	case workflow.ArgumentKindReference:
		return resolveExpression(v.Expression, scope)
	default:
		return nil, &UnresolvedReferenceError{
			Expression: v.Expression,
			Detail:     fmt.Sprintf("unknown argument kind %q", v.Kind),
		}
	}
}

// ResolveArguments resolves every entry of args against scope, returning a
// map ready for tool invocation. A value that resolves to errOmit is left
// out of the result entirely, per the resolver's "omitted, not fatal"
// contract; any other error fails the whole task.
func ResolveArguments(args map[string]workflow.ArgumentValue, scope Scope) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for name, v := range args {
		resolved, err := Resolve(v, scope)
		if err == errOmit {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		out[name] = resolved
	}
	return out, nil
}

// ValidateRequiredArguments checks that every name in required is present
// (as a key, regardless of value) in args.
func ValidateRequiredArguments(args map[string]workflow.ArgumentValue, required []string) error {
	for _, name := range required {
		if _, ok := args[name]; !ok {
			return &UnresolvedReferenceError{Expression: name, Detail: "required argument missing"}
		}
	}
	return nil
}

// MergeArguments overlays updates onto base, returning a new map. Used by
// the modify_args Command to patch a task's arguments without mutating the
// original DAG's Task.Arguments.
func MergeArguments(base map[string]workflow.ArgumentValue, updates map[string]workflow.ArgumentValue) map[string]workflow.ArgumentValue {
	out := make(map[string]workflow.ArgumentValue, len(base)+len(updates))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range updates {
		out[k] = v
	}
	return out
}

// decodeToGeneric normalizes an arbitrary prior-result payload (which may be
// a concrete struct, a pointer, or already map[string]any/[]any) into the
// map[string]any/[]any/scalar shape navigate walks, via mapstructure's
// generic decoding.
func decodeToGeneric(v any) (any, error) {
	switch v.(type) {
	case map[string]any, []any, string, float64, int, int64, bool, nil:
		return v, nil
	}

	var generic map[string]any
	if err := mapstructure.Decode(v, &generic); err == nil {
		return generic, nil
	}

	// Not struct-shaped (e.g. a slice of structs or a scalar wrapper type);
	// fall back to returning it unmodified so callers can still access it as
	// an opaque leaf value.
	return v, nil
}
