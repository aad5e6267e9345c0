package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// StripHTML returns the text content of an HTML fragment with tags removed
// and entities decoded. Media references disappear along with their tags.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" || string(name) == "div" {
				sb.WriteByte(' ')
			}
		}
	}
}

// FieldChecksum is the duplicate-lookup checksum of a stripped first field:
// the first 32 bits of its sha1.
func FieldChecksum(stripped string) int64 {
	sum := sha1.Sum([]byte(stripped))
	v, _ := strconv.ParseInt(hex.EncodeToString(sum[:4]), 16, 64)
	return v
}
