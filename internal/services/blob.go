package services

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxBlobExtLen = 8

// NewBlobName derives a stored filename for an upload. The name is built
// from the upload time and a random identifier; only a sanitized extension
// is taken from the client-supplied name, never the name itself.
func NewBlobName(originalName string) string {
	ext := sanitizeExt(originalName)
	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString())
	if ext != "" {
		name += "." + ext
	}
	return name
}

// SanitizeBlobName validates a client-supplied filename before it is used as
// an object key. Path separators and traversal sequences are rejected.
func SanitizeBlobName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("empty filename")
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", errors.New("invalid filename")
	}
	if name != path.Clean(name) || name == "." {
		return "", errors.New("invalid filename")
	}
	return name, nil
}

func sanitizeExt(originalName string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(path.Base(originalName)), "."))
	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > maxBlobExtLen {
		out = out[:maxBlobExtLen]
	}
	return out
}
