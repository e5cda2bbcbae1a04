// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cor is a small chain-of-responsibility framework. The video
// ingestion workflow is built from Commands joined into a Chain that pipes
// each command's output to the next one's input through a shared Context.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Default context keys for the chain's piping. A command reads CtxIn and
// writes CtxOut unless it declares its own parameter names; the chain moves
// CtxOut to CtxIn between commands.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the state shared by the commands of one chain execution: the
// piped values, the errors recorded so far, scratch files to clean up, and
// the Go context carrying cancellation and the active trace span.
type Context interface {
	SetContext(context context.Context)
	GetContext() context.Context

	// Add stores a value and returns the Context for chaining.
	Add(key string, value interface{}) Context
	Get(key string) interface{}
	Remove(key string)

	// AddError records a command failure; key is the command name.
	AddError(key string, err error)
	GetErrors() map[string]error
	HasErrors() bool

	// AddTempFile registers a scratch file for removal on Close.
	AddTempFile(file string)
	GetTempFiles() []string

	// Close removes the registered scratch files. Defer it when the
	// workflow starts.
	Close()
}

// Executable is anything that runs against a shared Context.
type Executable interface {
	Execute(context Context)
}

// Command is one unit of work in a chain. The parameter keys tell the chain
// where the command reads its input and writes its output; IsExecutable is
// the precondition the chain checks before calling Execute.
type Command interface {
	Executable

	GetName() string
	GetInputParam() string
	GetOutputParam() string
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command composed of other Commands, so chains nest. It runs its
// commands in order and stops at the first recorded error unless configured
// to continue.
type Chain interface {
	Command

	ContinueOnFailure(bool) Chain
	AddCommand(command Command) Chain
}
