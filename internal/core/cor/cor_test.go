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

package cor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zassert "github.com/zeebo/assert"

	"github.com/muziris-studio/broll-search/internal/core/cor"
)

// appendCommand appends its suffix to the string flowing through the chain.
type appendCommand struct {
	cor.BaseCommand
	suffix string
}

func newAppendCommand(name, suffix string) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix}
}

func (c *appendCommand) Execute(chCtx cor.Context) {
	in := chCtx.Get(c.GetInputParam()).(string)
	chCtx.Add(c.GetOutputParam(), in+c.suffix)
}

// failingCommand always records an error.
type failingCommand struct {
	cor.BaseCommand
}

func newFailingCommand(name string) *failingCommand {
	return &failingCommand{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *failingCommand) Execute(chCtx cor.Context) {
	chCtx.AddError(c.GetName(), errors.New("boom"))
}

func newChainContext(input string) cor.Context {
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(context.Background())
	chCtx.Add(cor.CtxIn, input)
	return chCtx
}

func TestChainPipesOutputToNextInput(t *testing.T) {
	chain := cor.NewBaseChain("pipe").
		AddCommand(newAppendCommand("first", "-a")).
		AddCommand(newAppendCommand("second", "-b"))

	chCtx := newChainContext("start")
	chain.Execute(chCtx)

	zassert.False(t, chCtx.HasErrors())
	// The final output is piped back to CtxIn by the flip-flop.
	assert.Equal(t, "start-a-b", chCtx.Get(cor.CtxIn))
}

func TestChainStopsAfterFailure(t *testing.T) {
	tail := newAppendCommand("tail", "-never")
	chain := cor.NewBaseChain("halting").
		AddCommand(newAppendCommand("head", "-a")).
		AddCommand(newFailingCommand("explode")).
		AddCommand(tail)

	chCtx := newChainContext("start")
	chain.Execute(chCtx)

	zassert.True(t, chCtx.HasErrors())
	require.Contains(t, chCtx.GetErrors(), "explode")
	// The failing command produced no output, so nothing reached the tail.
	assert.Nil(t, chCtx.Get(cor.CtxIn))
}

func TestChainContinueOnFailureRunsAllCommands(t *testing.T) {
	// The survivor reads a named key instead of the pipe, since the failing
	// command leaves the pipe empty.
	survivor := newAppendCommand("survivor", "-done")
	survivor.InputParamName = "seed"
	survivor.OutputParamName = "result"

	chain := cor.NewBaseChain("tolerant").ContinueOnFailure(true).
		AddCommand(newFailingCommand("explode")).
		AddCommand(survivor)

	chCtx := cor.NewBaseContext()
	chCtx.SetContext(context.Background())
	// The pipe must be seeded or the failing command is skipped as
	// not executable before it can record its error.
	chCtx.Add(cor.CtxIn, "start")
	chCtx.Add("seed", "value")

	chain.Execute(chCtx)

	zassert.True(t, chCtx.HasErrors())
	require.Contains(t, chCtx.GetErrors(), "explode")
	assert.Equal(t, "value-done", chCtx.Get("result"))
}

func TestContextCloseRemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "scratch.bin")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	chCtx := cor.NewBaseContext()
	chCtx.AddTempFile(file)
	chCtx.Close()

	_, err := os.Stat(file)
	zassert.True(t, os.IsNotExist(err))
}
