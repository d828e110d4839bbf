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

// Package localfs uploads topology packages to a directory on the local
// machine, typically an NFS or other shared mount that cluster workers can
// read directly. The copy is written atomically so a worker never observes
// a half-written package.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/retailnext/writefile"
	"github.com/streamforge/topologyuploader/config"
	"github.com/streamforge/topologyuploader/uploader"
	"go.uber.org/zap"
)

const ProviderName = "localfs"

func init() {
	uploader.Register(ProviderName, func() uploader.Uploader {
		return &Uploader{}
	})
}

type Uploader struct {
	target writefile.Config

	packageFile string
	fileName    string
	destFile    string
	packageURI  string
}

var _ uploader.Uploader = (*Uploader)(nil)

func (u *Uploader) Initialize(cfg *config.Config) error {
	if cfg.LocalFS.DirPath == "" {
		return config.Missing("localfs.dir_path")
	}
	if err := cfg.ValidateTopology(); err != nil {
		return err
	}

	u.target = writefile.Config{
		Directory:     cfg.LocalFS.DirPath,
		DirectoryMode: 0755,
		FileMode:      0644,
	}
	u.packageFile = cfg.Topology.PackageFile
	u.fileName = uploader.GenerateFilename(cfg.Topology.Name, cfg.Topology.Role)
	u.destFile = filepath.Join(cfg.LocalFS.DirPath, u.fileName)
	u.packageURI = "file://" + u.destFile
	return nil
}

func (u *Uploader) UploadPackage(ctx context.Context) (string, error) {
	if u.destFile == "" {
		return "", errors.New("localfs uploader not initialized")
	}
	lgr := zap.S()

	src, err := os.Open(u.packageFile)
	if err != nil {
		lgr.Errorw("package_file_missing", "file", u.packageFile, "err", err)
		return "", fmt.Errorf("topology package %s does not exist", u.packageFile)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			panic(closeErr)
		}
	}()

	err = u.target.WriteFile(u.fileName, func(file *os.File) error {
		_, copyErr := io.Copy(file, src)
		return copyErr
	})
	if err != nil {
		lgr.Errorw("package_copy_fail", "src", u.packageFile, "dest", u.destFile, "err", err)
		return "", fmt.Errorf("copying %s to %s failed: %w", u.packageFile, u.destFile, err)
	}

	lgr.Infow("package_uploaded", "uri", u.packageURI)
	return u.packageURI, nil
}

// Undo removes the copied package; an already-absent destination is success.
func (u *Uploader) Undo(ctx context.Context) error {
	if u.destFile == "" {
		return errors.New("localfs uploader not initialized")
	}
	if err := os.Remove(u.destFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %s failed: %w", u.destFile, err)
	}
	return nil
}

func (u *Uploader) Close() error {
	return nil
}
