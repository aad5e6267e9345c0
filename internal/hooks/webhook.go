package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/mrlokans/notebridge/internal/entities"
)

const (
	DefaultTimeout     = 2 * time.Second
	DefaultConcurrency = 4

	EventNoteAdded = "note_added"
)

// Payload is the JSON body posted for every added note.
type Payload struct {
	Event string                `json:"event"`
	Note  entities.InsertedNote `json:"note"`
}

// Webhook posts added notes to one or more HTTP endpoints. Endpoints may
// contain the {note_id} and {batch_id} placeholders. Delivery failures are
// logged and never reach the import that triggered them.
type Webhook struct {
	client      *http.Client
	urls        []string
	concurrency int
	logger      *slog.Logger
}

// NewWebhook builds a webhook notifier. Blank and invalid URLs are dropped;
// the result has no endpoints when none survive.
func NewWebhook(urls []string, timeout time.Duration, concurrency int, logger *slog.Logger) *Webhook {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Webhook{
		client:      &http.Client{Timeout: timeout},
		concurrency: concurrency,
		logger:      logger,
	}
	w.urls = w.normalize(urls)
	return w
}

// SplitURLs parses a comma separated endpoint list as found in configuration.
func SplitURLs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Enabled reports whether at least one endpoint is configured.
func (w *Webhook) Enabled() bool {
	return len(w.urls) > 0
}

func (w *Webhook) URLs() []string {
	return append([]string(nil), w.urls...)
}

func (w *Webhook) NoteAdded(ctx context.Context, note entities.InsertedNote) {
	if len(w.urls) == 0 {
		return
	}

	body, err := json.Marshal(Payload{Event: EventNoteAdded, Note: note})
	if err != nil {
		w.logger.Error("Failed to encode webhook payload", "note_id", note.ID, "error", err)
		return
	}

	p := pool.New().WithMaxGoroutines(min(w.concurrency, len(w.urls)))
	for _, endpoint := range w.urls {
		p.Go(func() {
			w.send(ctx, applyTemplate(endpoint, note), body)
		})
	}
	p.Wait()
}

func (w *Webhook) send(ctx context.Context, endpoint string, body []byte) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		w.logger.Warn("Failed to build webhook request", "url", endpoint, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("Webhook request failed", "url", endpoint, "error", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.logger.Warn("Webhook rejected", "url", endpoint, "error", fmt.Errorf("status %d", resp.StatusCode))
	}
}

func (w *Webhook) normalize(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	var normalized []string

	for _, raw := range urls {
		trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
		if trimmed == "" {
			continue
		}
		if !isValidURL(applyTemplate(trimmed, entities.InsertedNote{})) {
			w.logger.Warn("Skipping invalid webhook url", "url", trimmed)
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}

func applyTemplate(raw string, note entities.InsertedNote) string {
	result := strings.ReplaceAll(raw, "{note_id}", strconv.FormatInt(note.ID, 10))
	return strings.ReplaceAll(result, "{batch_id}", url.PathEscape(note.BatchID))
}

func isValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
