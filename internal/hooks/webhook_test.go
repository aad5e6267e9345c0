package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/notebridge/internal/entities"
)

type capture struct {
	mu       sync.Mutex
	paths    []string
	payloads []Payload
}

func (c *capture) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		_ = json.NewDecoder(r.Body).Decode(&p)
		c.mu.Lock()
		c.paths = append(c.paths, r.URL.Path)
		c.payloads = append(c.payloads, p)
		c.mu.Unlock()
		w.WriteHeader(status)
	}
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func sampleNote() entities.InsertedNote {
	return entities.InsertedNote{
		ID:       42,
		BatchID:  "batch-1",
		SchemaID: 7,
		DeckID:   1,
		Fields:   []entities.FieldValue{{Name: "Front", Value: "犬"}},
		Tags:     []string{"animals"},
	}
}

func TestWebhook_PostsPayload(t *testing.T) {
	c := &capture{}
	server := httptest.NewServer(c.handler(http.StatusOK))
	defer server.Close()

	w := NewWebhook([]string{server.URL + "/hook"}, time.Second, 2, nil)
	require.True(t, w.Enabled())
	w.NoteAdded(context.Background(), sampleNote())

	require.Len(t, c.payloads, 1)
	assert.Equal(t, EventNoteAdded, c.payloads[0].Event)
	assert.Equal(t, int64(42), c.payloads[0].Note.ID)
	assert.Equal(t, "batch-1", c.payloads[0].Note.BatchID)
	assert.Equal(t, "犬", c.payloads[0].Note.Fields[0].Value)
}

func TestWebhook_TemplatesAndDedupes(t *testing.T) {
	c := &capture{}
	server := httptest.NewServer(c.handler(http.StatusNoContent))
	defer server.Close()

	w := NewWebhook([]string{
		server.URL + "/notes/{note_id}",
		server.URL + "/notes/{note_id}/",
		"  ",
		server.URL + "/batches/{batch_id}",
	}, time.Second, 4, nil)
	assert.Len(t, w.URLs(), 2)

	w.NoteAdded(context.Background(), sampleNote())
	assert.ElementsMatch(t, []string{"/notes/42", "/batches/batch-1"}, c.paths)
}

func TestWebhook_SkipsInvalidURLs(t *testing.T) {
	logger, buf := bufferLogger()
	w := NewWebhook([]string{"ftp://example.com/hook", "not a url", "http://"}, 0, 0, logger)

	assert.False(t, w.Enabled())
	assert.Contains(t, buf.String(), "Skipping invalid webhook url")

	// No endpoints means no work and no panic.
	w.NoteAdded(context.Background(), sampleNote())
}

func TestWebhook_FailuresAreLogged(t *testing.T) {
	c := &capture{}
	server := httptest.NewServer(c.handler(http.StatusInternalServerError))
	defer server.Close()

	logger, buf := bufferLogger()
	w := NewWebhook([]string{server.URL, "http://127.0.0.1:1/unreachable"}, 200*time.Millisecond, 1, logger)
	w.NoteAdded(context.Background(), sampleNote())

	out := buf.String()
	assert.Contains(t, out, "Webhook rejected")
	assert.Contains(t, out, "status 500")
	assert.Contains(t, out, "Webhook request failed")
}

func TestWebhook_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	logger, buf := bufferLogger()
	w := NewWebhook([]string{server.URL}, 50*time.Millisecond, 1, logger)

	start := time.Now()
	w.NoteAdded(context.Background(), sampleNote())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Contains(t, buf.String(), "Webhook request failed")
}

func TestSplitURLs(t *testing.T) {
	assert.Nil(t, SplitURLs(""))
	assert.Equal(t, []string{"http://a", "https://b"}, SplitURLs(" http://a , ,https://b "))
}

type countingNotifier struct{ n int }

func (c *countingNotifier) NoteAdded(context.Context, entities.InsertedNote) { c.n++ }

func TestMulti(t *testing.T) {
	a, b := &countingNotifier{}, &countingNotifier{}
	m := Multi{a, nil, b}
	m.NoteAdded(context.Background(), sampleNote())
	m.NoteAdded(context.Background(), sampleNote())

	assert.Equal(t, 2, a.n)
	assert.Equal(t, 2, b.n)
}

func TestLogNotifier(t *testing.T) {
	logger, buf := bufferLogger()
	NewLogNotifier(logger).NoteAdded(context.Background(), sampleNote())

	out, err := io.ReadAll(buf)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "note_id=42"))
	assert.Contains(t, string(out), "batch_id=batch-1")
}
