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

// Package main contains the setup and initialization logic for the
// application's state. This file is responsible for creating and managing a
// centralized state manager that holds all shared dependencies: the
// configuration, the metadata store, the object store, the Vertex AI model
// adapters, the relevance engine, the ingest worker pool, and the HTTP
// handler set.
//
// Functions:
//   - SetupOS: Configures the environment variables the configuration
//     loader uses to locate the TOML files.
//   - GetConfig: A singleton accessor for the loaded configuration.
//   - InitState: Creates every service client, wires them together, and
//     starts the background ingest workers.
package main

import (
	"context"
	"log"
	"os"

	"github.com/muziris-studio/broll-search/internal/ai"
	"github.com/muziris-studio/broll-search/internal/api"
	"github.com/muziris-studio/broll-search/internal/config"
	"github.com/muziris-studio/broll-search/internal/core/search"
	"github.com/muziris-studio/broll-search/internal/core/search/lexicon"
	"github.com/muziris-studio/broll-search/internal/ingest"
	"github.com/muziris-studio/broll-search/internal/storage"
	"github.com/muziris-studio/broll-search/internal/store"
)

// StateManager holds all the shared dependencies for the application,
// acting as a centralized container for service clients and configuration.
// This avoids global variables and keeps dependency wiring in one place.
type StateManager struct {
	config  *config.Config
	meta    *store.Store
	objects storage.ObjectStore
	clients *ai.Clients
	engine  *search.Engine
	workers *ingest.WorkerPool
	server  *api.Server
}

// state is the single instance of StateManager.
var state = &StateManager{}

// SetupOS sets the environment variables the configuration loader uses to
// find the TOML files: the config directory prefix and the runtime name
// (e.g. "local", "test", "prod") whose file overrides the base settings.
func SetupOS() (err error) {
	err = os.Setenv(config.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	return os.Setenv(config.EnvConfigRuntime, "local")
}

// GetConfig provides a singleton instance of the application configuration,
// loaded from the TOML files on first use.
func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		cfg := config.NewConfig()
		config.LoadConfig(cfg)
		state.config = cfg
	}
	return state.config
}

// InitState initializes the entire application state.
//
// It performs the following steps:
//  1. Opens the metadata store (SQLite or Postgres per configuration).
//  2. Opens the object store (local directories or a GCS bucket).
//  3. Creates the Vertex AI client and the model adapters.
//  4. Builds the relevance engine over the store and the embedder.
//  5. Builds the ingest pipeline and starts the worker pool.
//  6. Assembles the HTTP handler set.
func InitState(ctx context.Context) {
	cfg := GetConfig()

	meta, err := store.Open(cfg.Database)
	if err != nil {
		panic(err)
	}
	state.meta = meta

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		panic(err)
	}
	state.objects = objects

	clients, err := ai.NewClients(ctx, cfg)
	if err != nil {
		panic(err)
	}
	state.clients = clients

	lex := lexicon.Default()
	state.engine = search.NewEngine(meta, clients.Embedder, lex, cfg.SearchWeights.Merge())

	pipeline := ingest.NewPipeline(
		ingest.NewFFmpeg(cfg.FFmpeg),
		ingest.Providers{
			Embedder:    clients.Embedder,
			Vision:      clients.Vision,
			Transcriber: clients.Transcriber,
		},
		objects, meta, lex,
	)
	state.workers = ingest.NewWorkerPool(pipeline, cfg.Application.ThreadPoolSize)
	state.workers.Start(ctx)

	state.server = api.NewServer(meta, objects, state.engine, state.workers)
}
