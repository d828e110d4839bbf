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

// Package scp uploads topology packages to the shared filesystem of a
// machine in the cluster using the scp command, so workers can fetch them
// from there with scp as well. On rollback it deletes the copied package
// over ssh.
//
// The scp_command and ssh_command configuration values are command prefixes
// ("scp -i key.pem" style) that have to be customized to carry the user
// name, host name and keys required to reach the upload host.
package scp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/streamforge/topologyuploader/config"
	"github.com/streamforge/topologyuploader/uploader"
	"go.uber.org/zap"
)

const ProviderName = "scp"

func init() {
	uploader.Register(ProviderName, func() uploader.Uploader {
		return &Uploader{}
	})
}

type Uploader struct {
	controller *Controller

	packageFile string
	destDir     string
	destFile    string
	packageURI  string
}

var _ uploader.Uploader = (*Uploader)(nil)

func (u *Uploader) Initialize(cfg *config.Config) error {
	if cfg.Scp.ScpCommand == "" {
		return config.Missing("scp.scp_command")
	}
	if cfg.Scp.SshCommand == "" {
		return config.Missing("scp.ssh_command")
	}
	if cfg.Scp.DirPath == "" {
		return config.Missing("scp.dir_path")
	}
	if err := cfg.ValidateTopology(); err != nil {
		return err
	}

	u.controller = NewController(cfg.Scp.ScpCommand, cfg.Scp.SshCommand, cfg.Verbose)
	u.packageFile = cfg.Topology.PackageFile
	u.destDir = cfg.Scp.DirPath

	fileName := uploader.GenerateFilename(cfg.Topology.Name, cfg.Topology.Role)
	u.destFile = path.Join(u.destDir, fileName)
	u.packageURI = fmt.Sprintf("%s/%s", u.destDir, fileName)
	return nil
}

func (u *Uploader) UploadPackage(ctx context.Context) (string, error) {
	if u.controller == nil {
		return "", errors.New("scp uploader not initialized")
	}
	lgr := zap.S()

	info, err := os.Stat(u.packageFile)
	if err != nil || !info.Mode().IsRegular() {
		lgr.Errorw("package_file_missing", "file", u.packageFile)
		return "", fmt.Errorf("topology package %s does not exist", u.packageFile)
	}

	if res := u.controller.EnsureDirectory(ctx, u.destDir); !res.OK {
		lgr.Errorw("upload_dir_create_fail", "dir", u.destDir)
		return "", fmt.Errorf("creating upload directory %s failed", u.destDir)
	}

	if res := u.controller.CopyFile(ctx, u.packageFile, u.destFile); !res.OK {
		lgr.Errorw("package_copy_fail", "src", u.packageFile, "dest", u.destFile)
		return "", fmt.Errorf("uploading %s to %s failed", u.packageFile, u.destFile)
	}

	lgr.Infow("package_uploaded", "uri", u.packageURI)
	return u.packageURI, nil
}

// Undo deletes the destination file whether or not the upload got as far as
// writing it. The remote rm -f treats an absent file as success, so calling
// Undo twice yields the same outcome.
func (u *Uploader) Undo(ctx context.Context) error {
	if u.controller == nil {
		return errors.New("scp uploader not initialized")
	}
	if res := u.controller.Delete(ctx, u.destFile); !res.OK {
		return fmt.Errorf("deleting %s failed", u.destFile)
	}
	return nil
}

func (u *Uploader) Close() error {
	return nil
}
