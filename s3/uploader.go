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

// Package s3 uploads topology packages to an S3 bucket. Workers fetch them
// with their own credentials using the returned s3:// URI.
package s3

import (
	"context"
	"errors"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/streamforge/topologyuploader/config"
	"github.com/streamforge/topologyuploader/uploader"
	"go.uber.org/zap"
)

const ProviderName = "s3"

func init() {
	uploader.Register(ProviderName, func() uploader.Uploader {
		return &Uploader{}
	})
}

// api is the slice of the S3 client this uploader needs. Tests substitute a
// fake; production lazily builds the real client on first use so Initialize
// stays free of I/O.
type api interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, opts ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *awss3.DeleteObjectInput, opts ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
}

type Uploader struct {
	client api
	region string

	packageFile string
	bucket      string
	key         string
	packageURI  string
}

var _ uploader.Uploader = (*Uploader)(nil)

func (u *Uploader) Initialize(cfg *config.Config) error {
	if cfg.S3.Bucket == "" {
		return config.Missing("s3.bucket")
	}
	if cfg.S3.Region == "" {
		return config.Missing("s3.region")
	}
	if err := cfg.ValidateTopology(); err != nil {
		return err
	}

	u.region = cfg.S3.Region
	u.packageFile = cfg.Topology.PackageFile
	u.bucket = cfg.S3.Bucket
	u.key = cfg.S3.KeyPrefix + uploader.GenerateFilename(cfg.Topology.Name, cfg.Topology.Role)
	u.packageURI = fmt.Sprintf("s3://%s/%s", u.bucket, u.key)
	return nil
}

func (u *Uploader) s3Client(ctx context.Context) (api, error) {
	if u.client != nil {
		return u.client, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(u.region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration failed: %w", err)
	}
	u.client = awss3.NewFromConfig(awsCfg)
	return u.client, nil
}

func (u *Uploader) UploadPackage(ctx context.Context) (string, error) {
	if u.bucket == "" {
		return "", errors.New("s3 uploader not initialized")
	}
	lgr := zap.S()

	f, err := os.Open(u.packageFile)
	if err != nil {
		lgr.Errorw("package_file_missing", "file", u.packageFile, "err", err)
		return "", fmt.Errorf("topology package %s does not exist", u.packageFile)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			panic(closeErr)
		}
	}()

	client, err := u.s3Client(ctx)
	if err != nil {
		return "", err
	}

	input := &awss3.PutObjectInput{
		Bucket: &u.bucket,
		Key:    &u.key,
		Body:   f,
	}
	if _, err := client.PutObject(ctx, input); err != nil {
		lgr.Errorw("package_put_fail", "src", u.packageFile, "bucket", u.bucket, "key", u.key, "err", err)
		return "", fmt.Errorf("uploading %s to %s failed: %w", u.packageFile, u.packageURI, err)
	}

	lgr.Infow("package_uploaded", "uri", u.packageURI)
	return u.packageURI, nil
}

// Undo deletes the uploaded object. S3 reports success when deleting a key
// that does not exist, and a NotFound that slips through anyway is treated
// as success too, so Undo stays idempotent.
func (u *Uploader) Undo(ctx context.Context) error {
	if u.bucket == "" {
		return errors.New("s3 uploader not initialized")
	}
	client, err := u.s3Client(ctx)
	if err != nil {
		return err
	}
	input := &awss3.DeleteObjectInput{
		Bucket: &u.bucket,
		Key:    &u.key,
	}
	if _, err := client.DeleteObject(ctx, input); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("deleting %s failed: %w", u.packageURI, err)
	}
	return nil
}

func (u *Uploader) Close() error {
	return nil
}
