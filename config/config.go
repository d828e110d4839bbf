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

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the deploy-time configuration handed to an uploader. It is
// populated once from YAML and treated as read-only afterwards.
type Config struct {
	// Uploader selects the provider: "scp", "localfs" or "s3".
	Uploader string `yaml:"uploader"`

	Topology Topology `yaml:"topology"`

	Scp     Scp     `yaml:"scp"`
	LocalFS LocalFS `yaml:"localfs"`
	S3      S3      `yaml:"s3"`

	// Verbose makes the scp provider log every command it runs.
	Verbose bool `yaml:"verbose"`

	// LedgerFile is where completed uploads are recorded so a later
	// invocation can undo them. Usually set by flag, not by file.
	LedgerFile string `yaml:"ledger_file"`
}

// Topology identifies the package being deployed.
type Topology struct {
	Name        string `yaml:"name"`
	Role        string `yaml:"role"`
	PackageFile string `yaml:"package_file"`
}

// Scp configures the scp/ssh provider. ScpCommand and SshCommand are
// command prefixes ("scp -i key.pem user@host" style) that must encode
// everything needed to reach the upload host; this tool adds only paths.
type Scp struct {
	ScpCommand string `yaml:"scp_command"`
	SshCommand string `yaml:"ssh_command"`
	DirPath    string `yaml:"dir_path"`
}

// LocalFS configures the shared-local-directory provider.
type LocalFS struct {
	DirPath string `yaml:"dir_path"`
}

// S3 configures the object-storage provider.
type S3 struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads and decodes a YAML configuration file. It does not validate
// provider sections; each provider checks its own keys during Initialize.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			panic(closeErr)
		}
	}()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = os.Getenv("AWS_REGION")
	}
	return &cfg, nil
}

// ValidateTopology checks the fields every provider needs.
func (c *Config) ValidateTopology() error {
	if c.Topology.Name == "" {
		return Missing("topology.name")
	}
	if c.Topology.Role == "" {
		return Missing("topology.role")
	}
	if c.Topology.PackageFile == "" {
		return Missing("topology.package_file")
	}
	return nil
}

// ValidationError reports a fatal configuration problem detected before any
// remote operation is attempted.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration %q: %s", e.Key, e.Reason)
}

// Missing is the ValidationError for a required value that was not set.
func Missing(key string) *ValidationError {
	return &ValidationError{Key: key, Reason: "required value not set"}
}
