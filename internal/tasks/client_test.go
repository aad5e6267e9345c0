package tasks

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/notebridge/internal/immersionkit"
	"github.com/mrlokans/notebridge/internal/importers"
	"github.com/mrlokans/notebridge/internal/services"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "collection.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, tmpDir
}

func TestNewClient(t *testing.T) {
	_, tmpDir := newTestClient(t)

	_, err := os.Stat(filepath.Join(tmpDir, "collection-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")
}

func TestQueuePath(t *testing.T) {
	assert.Equal(t, filepath.Join("profiles", "main", "collection-tasks.db"),
		QueuePath(filepath.Join("profiles", "main", "collection.db")))
	assert.Equal(t, "collection-tasks", QueuePath("collection"))
}

func TestClient_EnqueueRejectsInvalidTask(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Enqueue(ImportBatchTask{})
	assert.Error(t, err)

	_, err = client.Enqueue(ImportBatchTask{
		Local:  &services.LocalImportRequest{},
		Remote: &services.RemoteImportRequest{},
	})
	assert.Error(t, err)
}

func TestClient_StopBeforeStart(t *testing.T) {
	client, _ := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.True(t, client.Stop(ctx))
}

func TestClientStartStop(t *testing.T) {
	client, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

type fakeImporter struct {
	mu     sync.Mutex
	local  []services.LocalImportRequest
	remote []services.RemoteImportRequest
	err    error
	done   chan struct{}
}

func (f *fakeImporter) ImportLocal(ctx context.Context, req services.LocalImportRequest, _ importers.ProgressFunc) (*importers.Result, error) {
	f.mu.Lock()
	f.local = append(f.local, req)
	f.mu.Unlock()
	if f.done != nil {
		defer close(f.done)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &importers.Result{BatchID: "b-1", Successes: len(req.NoteIDs)}, nil
}

func (f *fakeImporter) ImportRemote(ctx context.Context, req services.RemoteImportRequest, _ importers.ProgressFunc) (*importers.Result, error) {
	f.mu.Lock()
	f.remote = append(f.remote, req)
	f.mu.Unlock()
	return &importers.Result{BatchID: "b-2", Successes: len(req.Examples)}, nil
}

func TestImportBatchTask_Enqueue(t *testing.T) {
	client, _ := newTestClient(t)
	imp := &fakeImporter{done: make(chan struct{})}
	client.Register(NewImportBatchQueue(imp, slog.Default()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.Enqueue(ImportBatchTask{Local: &services.LocalImportRequest{
		Profile: "other",
		NoteIDs: []int64{1, 2},
	}})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	select {
	case <-imp.done:
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}

	imp.mu.Lock()
	require.Len(t, imp.local, 1)
	assert.Equal(t, "other", imp.local[0].Profile)
	assert.Equal(t, []int64{1, 2}, imp.local[0].NoteIDs)
	imp.mu.Unlock()

	assert.Eventually(t, func() bool {
		status, err := client.Status(context.Background(), id)
		return err == nil && status == backlite.TaskStatusSuccess
	}, 5*time.Second, 20*time.Millisecond)
}

func TestImportBatchProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("remote", func(t *testing.T) {
		imp := &fakeImporter{}
		process := ImportBatchProcessor(imp, slog.Default())
		err := process(ctx, ImportBatchTask{Remote: &services.RemoteImportRequest{
			Examples: []immersionkit.Example{{ID: "a"}},
			SchemaID: 3,
		}})
		require.NoError(t, err)
		require.Len(t, imp.remote, 1)
		assert.Equal(t, int64(3), imp.remote[0].SchemaID)
	})

	t.Run("errors are wrapped", func(t *testing.T) {
		imp := &fakeImporter{err: importers.ErrUnknownDeck}
		process := ImportBatchProcessor(imp, slog.Default())
		err := process(ctx, ImportBatchTask{Local: &services.LocalImportRequest{NoteIDs: []int64{1}}})
		assert.True(t, errors.Is(err, importers.ErrUnknownDeck))
	})

	t.Run("invalid task", func(t *testing.T) {
		process := ImportBatchProcessor(&fakeImporter{}, slog.Default())
		assert.Error(t, process(ctx, ImportBatchTask{}))
		assert.Error(t, process(ctx, ImportBatchTask{
			Local:  &services.LocalImportRequest{},
			Remote: &services.RemoteImportRequest{},
		}))
	})

	t.Run("no importer", func(t *testing.T) {
		process := ImportBatchProcessor(nil, slog.Default())
		assert.Error(t, process(ctx, ImportBatchTask{Local: &services.LocalImportRequest{}}))
	})
}

func TestImportBatchTaskConfig(t *testing.T) {
	cfg := ImportBatchTask{}.Config()

	assert.Equal(t, ImportBatchQueue, cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestStatusName(t *testing.T) {
	assert.Equal(t, "pending", StatusName(backlite.TaskStatusPending))
	assert.Equal(t, "success", StatusName(backlite.TaskStatusSuccess))
	assert.Equal(t, "not_found", StatusName(backlite.TaskStatusNotFound))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 45*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}
