// Package media validates uploaded images and stores them in an image gateway.
package media

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"pulse/internal/models"
)

// File is an uploaded image held in memory.
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Ext returns the lower-cased file extension including the dot.
func (f File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Filename))
}

// Upload is a stored asset.
type Upload struct {
	URL      string
	PublicID string
}

// Uploader stores images and removes them again when a post write fails.
type Uploader interface {
	Upload(ctx context.Context, f File) (*Upload, error)
	Delete(ctx context.Context, publicID string) error
}

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// ValidateImage rejects empty, oversize and non-image files. Extension,
// declared MIME type and sniffed content must all be jpeg, png or gif.
func ValidateImage(f File, maxBytes int64) error {
	if len(f.Content) == 0 {
		return models.NewValidationError("Image file is empty")
	}
	if maxBytes > 0 && int64(len(f.Content)) > maxBytes {
		return models.NewValidationError("Image exceeds the " + humanSize(maxBytes) + " limit")
	}
	if !allowedExtensions[f.Ext()] {
		return models.NewValidationError("Only image files are allowed (jpeg, jpg, png, gif)")
	}
	declared := strings.ToLower(strings.TrimSpace(strings.SplitN(f.ContentType, ";", 2)[0]))
	if !allowedTypes[declared] {
		return models.NewValidationError("Only image files are allowed (jpeg, jpg, png, gif)")
	}
	if !allowedTypes[http.DetectContentType(f.Content)] {
		return models.NewValidationError("Image content does not match an allowed format")
	}
	return nil
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d byte", n)
}
