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
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// execCommand is swapped in tests so the controller can be exercised without
// real ssh/scp round trips.
var execCommand = exec.CommandContext

// RunResult is the outcome of one remote operation. The exit status is the
// only success signal the OpenSSH tools give us, so the captured combined
// output rides along for diagnostics.
type RunResult struct {
	OK     bool
	Output string
}

// Controller performs remote file operations by shelling out to the
// configured scp/ssh command prefixes. The prefixes must encode host,
// user and credentials; the controller only appends paths. It holds no
// state between calls.
type Controller struct {
	scpCommand []string
	sshCommand []string
	verbose    bool
}

func NewController(scpCommand, sshCommand string, verbose bool) *Controller {
	return &Controller{
		scpCommand: strings.Fields(scpCommand),
		sshCommand: strings.Fields(sshCommand),
		verbose:    verbose,
	}
}

// EnsureDirectory creates the remote directory tree. mkdir -p succeeds on an
// existing directory, so the result reports whether the directory now exists.
func (c *Controller) EnsureDirectory(ctx context.Context, path string) RunResult {
	argv := append(append([]string{}, c.sshCommand...), "mkdir -p "+path)
	return c.run(ctx, "remote_mkdir", argv)
}

// CopyFile copies a local file to the remote path via scp.
func (c *Controller) CopyFile(ctx context.Context, localPath, remotePath string) RunResult {
	argv := append(append([]string{}, c.scpCommand...), localPath, remotePath)
	return c.run(ctx, "remote_copy", argv)
}

// Delete removes the remote file. rm -f makes deletion of a path that was
// never written count as success, which keeps undo idempotent.
func (c *Controller) Delete(ctx context.Context, path string) RunResult {
	argv := append(append([]string{}, c.sshCommand...), "rm -f "+path)
	return c.run(ctx, "remote_delete", argv)
}

func (c *Controller) run(ctx context.Context, op string, argv []string) RunResult {
	lgr := zap.S()
	if c.verbose {
		lgr.Infow(op, "argv", argv)
	}
	cmd := execCommand(ctx, argv[0], argv[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		lgr.Errorw(op+"_fail", "err", err, "argv", argv, "output", string(output))
		return RunResult{Output: string(output)}
	}
	return RunResult{OK: true, Output: string(output)}
}
