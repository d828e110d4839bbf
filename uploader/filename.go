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
	"fmt"
	"strings"
)

const packageExtension = ".tar.gz"

// GenerateFilename derives the destination file name for a topology package.
// Every provider uses this, so the fetch side can reconstruct the name from
// the topology name and role alone. Path separators are flattened so a
// hostile topology name cannot escape the upload directory.
func GenerateFilename(topology, role string) string {
	sanitize := strings.NewReplacer("/", "_", "\\", "_")
	return fmt.Sprintf("%s-%s%s", sanitize.Replace(topology), sanitize.Replace(role), packageExtension)
}
