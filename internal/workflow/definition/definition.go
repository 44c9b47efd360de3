package definition

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Step is one entry in a declarative workflow definition.
type Step struct {
	TaskType   string `yaml:"taskType"`
	StepNumber int    `yaml:"stepNumber"`
	DependsOn  *int   `yaml:"dependsOn,omitempty"` // Step number of an earlier step, optional
}

// Definition is a named, ordered list of steps loaded from a YAML file.
// Structural parsing happens here; semantic validation (unique step numbers,
// resolvable task types, sane dependencies) is the workflow factory's job.
type Definition struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Load reads the definition named name from dir, expecting <dir>/<name>.yaml.
// The name must be a bare file name without path separators.
func Load(dir, name string) (*Definition, error) {
	if name == "" {
		return nil, fmt.Errorf("workflow name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == ".." {
		return nil, fmt.Errorf("invalid workflow name: %s", name)
	}

	path := filepath.Join(dir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow definition %s: %w", name, err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse workflow definition %s: %w", name, err)
	}

	return &def, nil
}
