package importers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/mrlokans/notebridge/internal/entities"
	"github.com/mrlokans/notebridge/internal/media"
)

// MediaSynchronizer moves the media a candidate references into the
// destination's media store and fixes up the draft's fields to match.
type MediaSynchronizer struct {
	dest    Destination
	fetcher MediaFetcher
	logger  *slog.Logger
}

func NewMediaSynchronizer(dest Destination, fetcher MediaFetcher, logger *slog.Logger) *MediaSynchronizer {
	return &MediaSynchronizer{dest: dest, fetcher: fetcher, logger: logger}
}

// Sync copies media for src into the destination. sourceMediaDir is only
// used for local notes.
func (m *MediaSynchronizer) Sync(ctx context.Context, d *draft, src entities.Candidate, sourceMediaDir string) error {
	switch c := src.(type) {
	case *entities.LocalNote:
		return m.syncLocal(ctx, d, sourceMediaDir)
	case *entities.RemoteNote:
		return m.syncRemote(ctx, d, c)
	default:
		return fmt.Errorf("unsupported candidate type %T", src)
	}
}

// syncLocal copies every file referenced from the draft's fields. Files
// missing on the source side are skipped; the reference is left as is.
func (m *MediaSynchronizer) syncLocal(ctx context.Context, d *draft, dir string) error {
	refs := media.FilesInText(entities.JoinFields(d.fields))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ref.Name != filepath.Base(ref.Name) {
			m.logger.Debug("Skipping media reference outside the media folder", "ref", ref.Raw)
			continue
		}

		path := filepath.Join(dir, ref.Name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			m.logger.Debug("Skipping missing source media", "file", ref.Name)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read media %s: %w", ref.Name, err)
		}

		name, err := m.dest.AddMediaFile(data, ref.Name)
		if err != nil {
			return fmt.Errorf("failed to store media %s: %w", ref.Name, err)
		}
		if name != ref.Name {
			d.renameReference(ref.Raw, name)
		}

		d.media = append(d.media, entities.MediaAsset{
			Field:  d.fieldReferencing(name),
			Source: path,
			Name:   name,
			Kind:   media.DetectKind(data, name),
		})
	}
	return nil
}

// syncRemote downloads each declared media slot and writes the embed markup
// into its field. Slots without an https link leave the field empty.
func (m *MediaSynchronizer) syncRemote(ctx context.Context, d *draft, note *entities.RemoteNote) error {
	for _, slot := range note.Media {
		idx := d.schema.FieldIndex(slot.Field)
		if idx < 0 {
			continue
		}
		if !slot.Valid() {
			d.fields[idx] = ""
			continue
		}
		if m.fetcher == nil {
			return errors.New("no media fetcher configured")
		}

		data, err := m.fetcher.Download(ctx, slot.URL)
		if err != nil {
			return fmt.Errorf("failed to download %s: %w", slot.URL, err)
		}

		desired := slot.FileName()
		if unescaped, err := url.PathUnescape(desired); err == nil {
			desired = unescaped
		}
		name, err := m.dest.AddMediaFile(data, desired)
		if err != nil {
			return fmt.Errorf("failed to store media %s: %w", desired, err)
		}

		d.fields[idx] = slot.Kind.EmbedMarkup(name)
		d.media = append(d.media, entities.MediaAsset{
			Field:  slot.Field,
			Source: slot.URL,
			Name:   name,
			Kind:   slot.Kind,
		})
	}
	return nil
}

// renameReference points every media reference to old at replacement.
func (d *draft) renameReference(old, replacement string) {
	for i, f := range d.fields {
		d.fields[i] = media.RewriteReferences(f, old, replacement)
	}
}

// fieldReferencing names the first field holding a media reference to name.
func (d *draft) fieldReferencing(name string) string {
	for i, f := range d.fields {
		if i >= len(d.schema.Fields) {
			break
		}
		for _, ref := range media.FilesInText(f) {
			if ref.Name == name || ref.Raw == name {
				return d.schema.Fields[i]
			}
		}
	}
	return ""
}
