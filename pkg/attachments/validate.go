package attachments

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// MaxPayloadSize is the largest accepted attachment payload, in bytes.
const MaxPayloadSize = 10 * 1024 * 1024

var (
	// ErrUnsupportedMediaType is returned for payloads outside the accepted
	// set of media types.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrPayloadTooLarge is returned for payloads over MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("payload exceeds 10MB limit")
)

// The accepted set: PDF plus the common raster image types.
var allowedMediaTypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
	"image/webp":      {},
	"image/gif":       {},
}

// Validate checks a payload's declared media type and size. It is meant to
// run at the input boundary, before the conversation manager is invoked;
// rejected payloads never reach the send path.
func Validate(mediaType string, size int64) error {
	if _, ok := allowedMediaTypes[mediaType]; !ok {
		return errors.Wrapf(ErrUnsupportedMediaType, "%s", mediaType)
	}
	if size > MaxPayloadSize {
		return errors.Wrapf(ErrPayloadTooLarge, "%d bytes", size)
	}
	return nil
}

// MediaTypeForExtension maps a file extension to its media type, or returns
// an empty string for unsupported extensions.
func MediaTypeForExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return ""
	}
}

// MediaTypeForFile derives the media type from a file path's extension.
func MediaTypeForFile(path string) string {
	return MediaTypeForExtension(filepath.Ext(path))
}
