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

package workflow

// ArgumentValue is the discriminated union replacing a three-branch runtime
// type switch. Exactly one of Literal, Parameter, or Reference is
// populated, discriminated by Kind.
type ArgumentValue struct {
	Kind ArgumentKind

	// Literal holds the value verbatim when Kind == ArgumentKindLiteral.
	Literal any

	// ParameterName is looked up in execution context when
	// Kind == ArgumentKindParameter.
	ParameterName string

	// Expression is evaluated as a path/template over prior results and
	// context when Kind == ArgumentKindReference.
	Expression string
}

// ArgumentKind discriminates ArgumentValue's active field.
type ArgumentKind string

const (
	ArgumentKindLiteral   ArgumentKind = "literal"
	ArgumentKindParameter ArgumentKind = "parameter"
	ArgumentKindReference ArgumentKind = "reference"
)

// Lit constructs a literal argument value.
func Lit(v any) ArgumentValue {
	return ArgumentValue{Kind: ArgumentKindLiteral, Literal: v}
}

// Param constructs a parameter-lookup argument value.
func Param(name string) ArgumentValue {
	return ArgumentValue{Kind: ArgumentKindParameter, ParameterName: name}
}

// Ref constructs a reference-expression argument value.
func Ref(expr string) ArgumentValue {
	return ArgumentValue{Kind: ArgumentKindReference, Expression: expr}
}
