package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/notebridge/internal/importers"
	"github.com/mrlokans/notebridge/internal/services"
)

const ImportBatchQueue = "import_batch"

// ImportBatchTask runs one import batch in the background. Exactly one of
// Local and Remote is set.
type ImportBatchTask struct {
	Local  *services.LocalImportRequest  `json:"local,omitempty"`
	Remote *services.RemoteImportRequest `json:"remote,omitempty"`
}

// Config returns the queue configuration for import batches. A batch is
// attempted once: a retry after a partial failure would only produce duplicates.
func (t ImportBatchTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        ImportBatchQueue,
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Validate checks the task carries exactly one request.
func (t ImportBatchTask) Validate() error {
	switch {
	case t.Local == nil && t.Remote == nil:
		return errors.New("import task has no request")
	case t.Local != nil && t.Remote != nil:
		return errors.New("import task has both a local and a remote request")
	}
	return nil
}

// BatchImporter is the part of the import service the task needs.
type BatchImporter interface {
	ImportLocal(ctx context.Context, req services.LocalImportRequest, progress importers.ProgressFunc) (*importers.Result, error)
	ImportRemote(ctx context.Context, req services.RemoteImportRequest, progress importers.ProgressFunc) (*importers.Result, error)
}

// ImportBatchProcessor creates a processor function for ImportBatchTask.
func ImportBatchProcessor(importer BatchImporter, logger *slog.Logger) backlite.QueueProcessor[ImportBatchTask] {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, task ImportBatchTask) error {
		if importer == nil {
			return fmt.Errorf("importer not configured")
		}
		if err := task.Validate(); err != nil {
			return err
		}

		var (
			result *importers.Result
			err    error
		)
		if task.Local != nil {
			result, err = importer.ImportLocal(ctx, *task.Local, nil)
		} else {
			result, err = importer.ImportRemote(ctx, *task.Remote, nil)
		}
		if err != nil {
			return fmt.Errorf("import batch: %w", err)
		}

		logger.Info("Background import finished",
			"batch_id", result.BatchID,
			"successes", result.Successes,
			"duplicates", result.Duplicates,
			"errors", result.Errors,
		)
		return nil
	}
}

// NewImportBatchQueue creates a backlite queue for import batches.
func NewImportBatchQueue(importer BatchImporter, logger *slog.Logger) backlite.Queue {
	return backlite.NewQueue(ImportBatchProcessor(importer, logger))
}
