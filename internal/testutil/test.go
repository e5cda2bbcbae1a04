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

// Package testutil provides shared test support: a cached test
// configuration and in-memory fakes for the model adapters and media tool,
// so the pipeline and API can be exercised without Vertex AI or ffmpeg.
package testutil

import (
	"log"
	"os"

	"github.com/muziris-studio/broll-search/internal/config"
)

// stateManager caches the loaded test configuration so the TOML files are
// read once per test run.
type stateManager struct {
	config *config.Config
}

var state = &stateManager{}

// SetupOS points the configuration loader at the test TOML files
// (configs/.env.toml plus configs/.env.test.toml).
func SetupOS() (err error) {
	if err = os.Setenv(config.EnvConfigFilePrefix, "configs"); err != nil {
		return err
	}
	return os.Setenv(config.EnvConfigRuntime, "test")
}

// GetConfig is the singleton accessor for the test configuration.
func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		cfg := config.NewConfig()
		config.LoadConfig(cfg)
		state.config = cfg
	}
	return state.config
}
