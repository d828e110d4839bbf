// Copyright 2025 StreamForge, Inc.
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

// Package uploader defines the contract a topology package uploader must
// satisfy and the registry the scheduler uses to pick one by name.
//
// An uploader places a packaged topology somewhere cluster workers can fetch
// it from and reports the fetch URI back. When a later stage of a deployment
// fails, the orchestrator calls Undo on the same instance (or on a fresh
// instance initialized from the same configuration) to roll the upload back.
package uploader

import (
	"context"
	"fmt"
	"sort"

	"github.com/streamforge/topologyuploader/config"
)

// Uploader is the plugin contract. Initialize must not perform I/O; it only
// validates configuration and derives the destination paths. UploadPackage
// and Undo may block on the network for as long as the passed context allows.
// Instances are not safe for concurrent use.
type Uploader interface {
	// Initialize validates configuration and prepares the upload descriptor.
	// A missing required value is reported as a *config.ValidationError.
	Initialize(cfg *config.Config) error

	// UploadPackage copies the topology package to the destination and
	// returns the URI workers should fetch it from.
	UploadPackage(ctx context.Context) (string, error)

	// Undo removes the uploaded package. Removing a destination that was
	// never written (or was already removed) is success, so Undo may be
	// called unconditionally after a failed deployment and may be retried.
	Undo(ctx context.Context) error

	// Close releases any resources held by the uploader.
	Close() error
}

// Factory builds an uninitialized uploader instance.
type Factory func() Uploader

var registry = make(map[string]Factory)

// Register makes a provider available to Open. It is intended to be called
// from provider package init functions; registering the same name twice
// panics.
func Register(name string, factory Factory) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("uploader: duplicate provider %q", name))
	}
	registry[name] = factory
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open builds and initializes the provider named by cfg.Uploader.
func Open(cfg *config.Config) (Uploader, error) {
	factory, ok := registry[cfg.Uploader]
	if !ok {
		return nil, &config.ValidationError{
			Key:    "uploader",
			Reason: fmt.Sprintf("unknown provider %q (have %v)", cfg.Uploader, Providers()),
		}
	}
	u := factory()
	if err := u.Initialize(cfg); err != nil {
		return nil, err
	}
	return u, nil
}
