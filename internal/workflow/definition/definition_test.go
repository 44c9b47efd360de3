package definition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeDefinition(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write definition: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "example_workflow", `
name: example_workflow
steps:
  - taskType: polygonArea
    stepNumber: 1
  - taskType: notification
    stepNumber: 2
    dependsOn: 1
`)

	def, err := Load(dir, "example_workflow")
	assert.NoError(t, err)
	assert.Equal(t, "example_workflow", def.Name)
	assert.Len(t, def.Steps, 2)

	assert.Equal(t, "polygonArea", def.Steps[0].TaskType)
	assert.Equal(t, 1, def.Steps[0].StepNumber)
	assert.Nil(t, def.Steps[0].DependsOn)

	if assert.NotNil(t, def.Steps[1].DependsOn) {
		assert.Equal(t, 1, *def.Steps[1].DependsOn)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), "missing")
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "broken", "steps: [")

	_, err := Load(dir, "broken")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoad_RejectsPathTraversal(t *testing.T) {
	for _, name := range []string{"", "../etc/passwd", `..\evil`, "a/b"} {
		_, err := Load(t.TempDir(), name)
		assert.Error(t, err, "name %q must be rejected", name)
	}
}

func TestLoad_ShippedDefinitions(t *testing.T) {
	// The definitions shipped in workflows/ must stay loadable.
	dir := filepath.Join("..", "..", "..", "workflows")
	if _, err := os.Stat(dir); err != nil {
		t.Skip("workflows directory not present")
	}

	def, err := Load(dir, "example_workflow")
	assert.NoError(t, err)
	assert.Len(t, def.Steps, 4)

	def, err = Load(dir, "polygon_test_workflow")
	assert.NoError(t, err)
	assert.Len(t, def.Steps, 2)
}
