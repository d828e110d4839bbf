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

package uploader

import (
	"context"
	"errors"
	"testing"

	"github.com/streamforge/topologyuploader/config"
)

type stubUploader struct {
	initialized bool
}

func (s *stubUploader) Initialize(cfg *config.Config) error {
	s.initialized = true
	return cfg.ValidateTopology()
}

func (s *stubUploader) UploadPackage(ctx context.Context) (string, error) {
	return "stub://uploaded", nil
}

func (s *stubUploader) Undo(ctx context.Context) error { return nil }
func (s *stubUploader) Close() error                   { return nil }

func init() {
	Register("stub", func() Uploader { return &stubUploader{} })
}

func TestOpenInitializes(t *testing.T) {
	cfg := &config.Config{
		Uploader: "stub",
		Topology: config.Topology{Name: "wordcount", Role: "svc", PackageFile: "/tmp/job.tar.gz"},
	}
	u, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !u.(*stubUploader).initialized {
		t.Fatal("Open returned an uninitialized uploader")
	}
}

func TestOpenUnknownProvider(t *testing.T) {
	cfg := &config.Config{Uploader: "carrier-pigeon"}
	_, err := Open(cfg)
	var validationErr *config.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validationErr.Key != "uploader" {
		t.Fatalf("wrong key %q", validationErr.Key)
	}
}

func TestOpenPropagatesValidation(t *testing.T) {
	cfg := &config.Config{Uploader: "stub"}
	_, err := Open(cfg)
	var validationErr *config.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProvidersSorted(t *testing.T) {
	names := Providers()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("providers not sorted: %v", names)
		}
	}
	found := false
	for _, name := range names {
		if name == "stub" {
			found = true
		}
	}
	if !found {
		t.Fatalf("registered provider missing from %v", names)
	}
}
