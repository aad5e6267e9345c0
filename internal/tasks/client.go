package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client runs queued import batches for one collection. Queue state lives in
// its own SQLite file so a long import never holds the collection's write lock
// while waiting for a worker.
type Client struct {
	queue   *backlite.Client
	db      *sql.DB
	workers int
	logger  *slog.Logger
	started atomic.Bool
}

// QueuePath names the queue database kept next to a collection database:
// <dir>/collection.db gets <dir>/collection-tasks.db.
func QueuePath(collectionDB string) string {
	ext := filepath.Ext(collectionDB)
	return strings.TrimSuffix(collectionDB, ext) + "-tasks" + ext
}

func openQueueDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	db.SetMaxOpenConns(workers + 5)
	db.SetMaxIdleConns(workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// NewClient opens (or creates) the queue database for the collection at
// collectionDB and installs the backlite schema.
func NewClient(collectionDB string, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "tasks")

	db, err := openQueueDB(QueuePath(collectionDB), cfg.Workers)
	if err != nil {
		return nil, err
	}

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          logger,
	})
	if err == nil {
		err = queue.Install()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up import queue: %w", err)
	}

	return &Client{queue: queue, db: db, workers: cfg.Workers, logger: logger}, nil
}

// Register adds queues; call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.queue.Register(q)
	}
}

// Start runs the workers until ctx is cancelled or Stop is called. A second
// call is a no-op.
func (c *Client) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	c.logger.Info("Import queue started", "workers", c.workers)
	c.queue.Start(ctx)
}

// Stop waits for running imports to finish. It reports false when ctx
// expired first.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.started.Load() {
		return true
	}

	c.logger.Info("Stopping import queue")
	if !c.queue.Stop(ctx) {
		c.logger.Warn("Import queue stopped before running batches finished")
		return false
	}
	c.logger.Info("Import queue stopped")
	return true
}

func (c *Client) Close() error {
	return c.db.Close()
}

// Enqueue validates an import batch task and stores it. Returns the task ID.
func (c *Client) Enqueue(task ImportBatchTask) (string, error) {
	if err := task.Validate(); err != nil {
		return "", err
	}

	ids, err := c.queue.Add(task).Save()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue import batch: %w", err)
	}
	c.logger.Debug("Import batch enqueued", "task_id", ids[0], "local", task.Local != nil)
	return ids[0], nil
}

// Status returns the state of a queued import.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.queue.Status(ctx, taskID)
}

// StatusName renders a task status for API responses.
func StatusName(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
