package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Archiver writes a workflow's finalResult document to the configured storage
// driver under a stable key.
type Archiver struct {
	driver StorageDriver
}

func NewArchiver(driver StorageDriver) *Archiver {
	return &Archiver{driver: driver}
}

// Key returns the storage key for a workflow's archived final result.
func Key(workflowID uuid.UUID) string {
	return fmt.Sprintf("workflows/%s.json", workflowID)
}

// Archive stores the finalResult document for the given workflow. Repeated
// archival for the same workflow overwrites the previous document.
func (a *Archiver) Archive(ctx context.Context, workflowID uuid.UUID, data string) error {
	return a.driver.Save(ctx, Key(workflowID), strings.NewReader(data), "application/json")
}
