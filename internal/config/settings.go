package config

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ProjectSettings is the per-project state devhub remembers between runs,
// stored in <project>/.devhub/settings.yaml.
type ProjectSettings struct {
	mu      sync.RWMutex
	project string
	path    string
	data    settingsFile
}

type settingsFile struct {
	LastAI string `yaml:"last_ai,omitempty"`
}

// LoadProjectSettings reads the project's settings. A missing file yields
// empty settings.
func LoadProjectSettings(projectDir string) (*ProjectSettings, error) {
	s := &ProjectSettings{
		project: projectDir,
		path:    filepath.Join(ProjectStateDir(projectDir), "settings.yaml"),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &s.data); err != nil {
		return nil, err
	}
	return s, nil
}

// LastAI returns the most recently used AI tool name.
func (s *ProjectSettings) LastAI() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.LastAI
}

// SetLastAI records name and saves the file.
func (s *ProjectSettings) SetLastAI(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.LastAI == name {
		return nil
	}
	s.data.LastAI = name
	return s.save()
}

func (s *ProjectSettings) save() error {
	data, err := yaml.Marshal(&s.data)
	if err != nil {
		return err
	}
	if err := EnsureProjectStateDir(s.project); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
