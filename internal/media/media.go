// Package media validates uploaded images and derives their storage keys.
//
// AppendReferences and RemoveReference are the string façade over
// model.ImageRefs for callers holding the comma-joined image_url form.
// Services that already hold a model.Product edit its ImageRefs directly.
package media

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"catalog-service/internal/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrInvalidType = errors.New("invalid file type")
	ErrTooLarge    = errors.New("file too large")
	ErrEmpty       = errors.New("empty file")
)

// AllowedTypes are the content types accepted for product images
var AllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

const octetStream = "application/octet-stream"

var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// File is an uploaded image held in memory
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// ResolveContentType returns the declared type, or one derived from the
// bytes and then the file extension when the client sent none.
func ResolveContentType(name, declared string, data []byte) string {
	declared = normalizeType(declared)
	if declared != "" && declared != octetStream {
		return declared
	}
	if len(data) > 0 {
		if detected := normalizeType(mimetype.Detect(data).String()); detected != octetStream {
			return detected
		}
	}
	if t, ok := extensionTypes[strings.ToLower(path.Ext(name))]; ok {
		return t
	}
	if declared == "" {
		return octetStream
	}
	return declared
}

func normalizeType(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "image/jpg" {
		return "image/jpeg"
	}
	return t
}

// Validate rejects files outside the allow-list or above maxSize
func Validate(contentType string, size, maxSize int64, allowed []string) error {
	if size <= 0 {
		return ErrEmpty
	}
	if !contains(allowed, normalizeType(contentType)) {
		return fmt.Errorf("%w: %s", ErrInvalidType, contentType)
	}
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("%w: maximum size is %s", ErrTooLarge, HumanSize(maxSize))
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// HumanSize renders n bytes as whole MiB when possible
func HumanSize(n int64) string {
	const mib = 1 << 20
	if n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}

// StorageKey builds a unique object key: products/<millis>-<random>-<name>
func StorageKey(now time.Time, originalName, contentType string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("products/%d-%s-%s", now.UnixMilli(), suffix, SanitizeName(originalName, contentType))
}

// SanitizeName keeps letters, digits, dot, dash and underscore from the base
// name and guarantees an extension.
func SanitizeName(name, contentType string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	clean := strings.Trim(b.String(), "._")
	if len(clean) > 100 {
		clean = clean[len(clean)-100:]
	}
	if clean == "" {
		clean = "image"
	}
	if path.Ext(clean) == "" {
		if ext := extensionFor(contentType); ext != "" {
			clean += ext
		}
	}
	return clean
}

func extensionFor(contentType string) string {
	switch normalizeType(contentType) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}

// AppendReferences adds urls to a comma-joined list, dropping empty segments
func AppendReferences(existing string, urls []string) string {
	return model.ParseImageRefs(existing).Append(urls...).String()
}

// RemoveReference drops url from a comma-joined list, keeping the order of the rest
func RemoveReference(list, url string) string {
	return model.ParseImageRefs(list).Remove(url).String()
}
