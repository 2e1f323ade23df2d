// Copyright 2025 codemorph Authors
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

package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vifraa/gopom"

	"github.com/codemorph/codemorph/lang/ir"
	"github.com/codemorph/codemorph/lang/log"
)

// SourceManifest captures build-level facts about the source tree: project
// coordinates and declared external dependencies. The resolver uses the
// declared artifacts as additional import identifiers to resolve up front.
type SourceManifest struct {
	Name         string   `json:"name"`
	Coordinates  string   `json:"coordinates,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// ReadManifest inspects the source tree for a build manifest of the source
// language. Absence of a manifest is not an error; extraction proceeds with
// in-file imports only.
func ReadManifest(root string, source ir.Language) (*SourceManifest, error) {
	switch source {
	case ir.Java:
		return readMavenManifest(root)
	default:
		return &SourceManifest{Name: filepath.Base(root)}, nil
	}
}

func readMavenManifest(root string) (*SourceManifest, error) {
	pomPath := filepath.Join(root, "pom.xml")
	if _, err := os.Stat(pomPath); err != nil {
		log.Debug("no pom.xml under %s, extracting without manifest", root)
		return &SourceManifest{Name: filepath.Base(root)}, nil
	}
	project, err := gopom.Parse(pomPath)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pomPath, err)
	}

	m := &SourceManifest{Name: project.ArtifactID}
	if m.Name == "" {
		m.Name = filepath.Base(root)
	}
	if project.GroupID != "" && project.ArtifactID != "" {
		m.Coordinates = project.GroupID + ":" + project.ArtifactID
		if project.Version != "" {
			m.Coordinates += ":" + project.Version
		}
	}
	for _, dep := range project.Dependencies {
		if dep.GroupID == "" || dep.ArtifactID == "" {
			continue
		}
		m.Dependencies = append(m.Dependencies, dep.GroupID+":"+dep.ArtifactID)
	}
	return m, nil
}
