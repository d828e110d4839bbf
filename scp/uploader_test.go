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

package scp

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/streamforge/topologyuploader/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	packageFile := filepath.Join(t.TempDir(), "job.tar.gz")
	if err := os.WriteFile(packageFile, []byte("package"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		Uploader: ProviderName,
		Topology: config.Topology{
			Name:        "wordcount",
			Role:        "svc",
			PackageFile: packageFile,
		},
		Scp: config.Scp{
			ScpCommand: "scp -i key.pem",
			SshCommand: "ssh -i key.pem",
			DirPath:    "/mnt/share/topologies",
		},
	}
}

func TestInitializeDerivesURI(t *testing.T) {
	var u Uploader
	if err := u.Initialize(testConfig(t)); err != nil {
		t.Fatal(err)
	}
	if u.packageURI != "/mnt/share/topologies/wordcount-svc.tar.gz" {
		t.Fatalf("unexpected uri %q", u.packageURI)
	}
	if u.destFile != "/mnt/share/topologies/wordcount-svc.tar.gz" {
		t.Fatalf("unexpected dest file %q", u.destFile)
	}
}

func TestInitializeMissingConfig(t *testing.T) {
	cases := []struct {
		key   string
		strip func(*config.Config)
	}{
		{"scp.scp_command", func(c *config.Config) { c.Scp.ScpCommand = "" }},
		{"scp.ssh_command", func(c *config.Config) { c.Scp.SshCommand = "" }},
		{"scp.dir_path", func(c *config.Config) { c.Scp.DirPath = "" }},
		{"topology.name", func(c *config.Config) { c.Topology.Name = "" }},
		{"topology.role", func(c *config.Config) { c.Topology.Role = "" }},
		{"topology.package_file", func(c *config.Config) { c.Topology.PackageFile = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			cfg := testConfig(t)
			tc.strip(cfg)

			var u Uploader
			err := u.Initialize(cfg)
			var validationErr *config.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if validationErr.Key != tc.key {
				t.Fatalf("wrong key %q, want %q", validationErr.Key, tc.key)
			}
		})
	}
}

func TestUploadPackageSuccessThenUndo(t *testing.T) {
	calls := recordCommands(t, succeed)

	var u Uploader
	if err := u.Initialize(testConfig(t)); err != nil {
		t.Fatal(err)
	}

	uri, err := u.UploadPackage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if uri != "/mnt/share/topologies/wordcount-svc.tar.gz" {
		t.Fatalf("unexpected uri %q", uri)
	}
	if len(*calls) != 2 {
		t.Fatalf("expected mkdir then copy, got %v", *calls)
	}

	if err := u.Undo(context.Background()); err != nil {
		t.Fatal(err)
	}
	deleteCall := (*calls)[2]
	if deleteCall[len(deleteCall)-1] != "rm -f /mnt/share/topologies/wordcount-svc.tar.gz" {
		t.Fatalf("undo deleted the wrong path: %v", deleteCall)
	}
}

func TestUploadPackageMissingLocalFile(t *testing.T) {
	calls := recordCommands(t, succeed)

	cfg := testConfig(t)
	cfg.Topology.PackageFile = filepath.Join(t.TempDir(), "nope.tar.gz")

	var u Uploader
	if err := u.Initialize(cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := u.UploadPackage(context.Background()); err == nil {
		t.Fatal("expected error for missing package file")
	}
	if len(*calls) != 0 {
		t.Fatalf("no remote command should be issued, got %v", *calls)
	}
}

func TestUploadPackageMkdirFailureSkipsCopy(t *testing.T) {
	calls := recordCommands(t, fail)

	var u Uploader
	if err := u.Initialize(testConfig(t)); err != nil {
		t.Fatal(err)
	}
	_, err := u.UploadPackage(context.Background())
	if err == nil || !strings.Contains(err.Error(), "creating upload directory") {
		t.Fatalf("expected mkdir failure, got %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("copy must not be attempted after mkdir failure, got %v", *calls)
	}
}

func TestUploadPackageCopyFailure(t *testing.T) {
	old := execCommand
	t.Cleanup(func() { execCommand = old })
	var calls [][]string
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, append([]string{name}, args...))
		if name == "scp" {
			return exec.CommandContext(ctx, "false")
		}
		return exec.CommandContext(ctx, "true")
	}

	var u Uploader
	if err := u.Initialize(testConfig(t)); err != nil {
		t.Fatal(err)
	}
	_, err := u.UploadPackage(context.Background())
	if err == nil || !strings.Contains(err.Error(), "uploading") {
		t.Fatalf("expected copy failure, got %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected mkdir then copy, got %v", calls)
	}
}

func TestUndoIsIdempotent(t *testing.T) {
	recordCommands(t, succeed)

	var u Uploader
	if err := u.Initialize(testConfig(t)); err != nil {
		t.Fatal(err)
	}
	// Nothing was uploaded; both calls delete an absent remote path.
	if err := u.Undo(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := u.Undo(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestUninitializedUploader(t *testing.T) {
	var u Uploader
	if _, err := u.UploadPackage(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized UploadPackage")
	}
	if err := u.Undo(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized Undo")
	}
}
