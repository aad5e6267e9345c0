package media

import (
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mrlokans/notebridge/internal/entities"
)

var (
	mediaTagPattern = regexp.MustCompile(`(?i)<(?:img|audio|video|source|object)\b[^>]*>`)
	srcAttrPattern  = regexp.MustCompile(`(?i)\ssrc\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>"']+))`)
	soundPattern    = regexp.MustCompile(`\[sound:([^\]]+)\]`)
)

// Reference is one media file referenced from field text.
type Reference struct {
	// Raw is the reference exactly as it appears in the text.
	Raw string
	// Name is the file name in the media directory.
	Name string
}

// FilesInText lists the local media files referenced by field text, in
// order of first appearance. Remote URLs and data URIs are ignored.
func FilesInText(text string) []Reference {
	var refs []Reference
	seen := make(map[string]bool)

	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || seen[raw] || isRemote(raw) {
			return
		}
		seen[raw] = true
		refs = append(refs, Reference{Raw: raw, Name: html.UnescapeString(raw)})
	}

	for _, tag := range mediaTagPattern.FindAllString(text, -1) {
		for _, m := range srcAttrPattern.FindAllStringSubmatch(tag, -1) {
			add(m[1] + m[2] + m[3])
		}
	}
	for _, m := range soundPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	return refs
}

// RewriteReferences replaces the media reference old with replacement in
// src attributes of media tags and in [sound:] tags. Plain text and other
// attributes are left untouched, and a reference only matches as a whole
// value, so renaming 1.jpg never touches 11.jpg.
func RewriteReferences(text, old, replacement string) string {
	text = mediaTagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		return srcAttrPattern.ReplaceAllStringFunc(tag, func(attr string) string {
			m := srcAttrPattern.FindStringSubmatch(attr)
			value := m[1] + m[2] + m[3]
			if strings.TrimSpace(value) != old {
				return attr
			}
			i := strings.LastIndex(attr, value)
			return attr[:i] + replacement + attr[i+len(value):]
		})
	})

	return soundPattern.ReplaceAllStringFunc(text, func(tag string) string {
		m := soundPattern.FindStringSubmatch(tag)
		if strings.TrimSpace(m[1]) != old {
			return tag
		}
		return "[sound:" + replacement + "]"
	})
}

func isRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:")
}

var audioExtensions = map[string]bool{
	".mp3": true, ".ogg": true, ".oga": true, ".opus": true, ".wav": true,
	".m4a": true, ".aac": true, ".flac": true, ".spx": true, ".webm": true,
}

// DetectKind classifies media bytes as audio or image. Content sniffing wins;
// the file extension decides when the content is not recognized.
func DetectKind(data []byte, name string) entities.MediaKind {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		switch {
		case strings.HasPrefix(m.String(), "image/"):
			return entities.MediaKindImage
		case strings.HasPrefix(m.String(), "audio/"):
			return entities.MediaKindAudio
		}
	}

	if audioExtensions[strings.ToLower(filepath.Ext(name))] {
		return entities.MediaKindAudio
	}
	return entities.MediaKindImage
}
