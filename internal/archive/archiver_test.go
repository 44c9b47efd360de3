package archive

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/OpenGeoFlow/geoflow/internal/archive/drivers"
	"github.com/OpenGeoFlow/geoflow/internal/config"
)

var (
	_ StorageDriver = (*drivers.LocalFSDriver)(nil)
	_ StorageDriver = (*drivers.S3Driver)(nil)
)

func configArchive(archiveType string) config.ArchiveConfig {
	return config.ArchiveConfig{Type: archiveType}
}

func TestArchiver_Archive(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "archive-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	driver, err := drivers.NewLocalFSDriver(tempDir, "")
	assert.NoError(t, err)
	archiver := NewArchiver(driver)

	workflowID := uuid.New()
	data := `{"finalReport":"all done"}`
	assert.NoError(t, archiver.Archive(context.Background(), workflowID, data))

	reader, contentType, err := driver.Get(context.Background(), Key(workflowID))
	assert.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "application/json", contentType)
	stored, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Equal(t, data, string(stored))
}

func TestKey(t *testing.T) {
	id := uuid.MustParse("3b241101-e2bb-4255-8caf-4136c566a962")
	assert.Equal(t, "workflows/3b241101-e2bb-4255-8caf-4136c566a962.json", Key(id))
}

func TestNewStorageFromConfig_Disabled(t *testing.T) {
	driver, err := NewStorageFromConfig(context.Background(), configArchive("none"))
	assert.NoError(t, err)
	assert.Nil(t, driver)
}

func TestNewStorageFromConfig_UnknownType(t *testing.T) {
	_, err := NewStorageFromConfig(context.Background(), configArchive("ftp"))
	assert.Error(t, err)
}
