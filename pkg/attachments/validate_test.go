package attachments

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsSupportedTypes(t *testing.T) {
	for _, mediaType := range []string{
		"application/pdf",
		"image/png",
		"image/jpeg",
		"image/webp",
		"image/gif",
	} {
		assert.NoError(t, Validate(mediaType, 1024), mediaType)
	}
}

func TestValidateRejectsUnsupportedType(t *testing.T) {
	err := Validate("video/mp4", 1024)
	require.True(t, errors.Is(err, ErrUnsupportedMediaType))
}

func TestValidateRejectsOversizedPayload(t *testing.T) {
	err := Validate("image/png", MaxPayloadSize+1)
	require.True(t, errors.Is(err, ErrPayloadTooLarge))
}

func TestValidateAcceptsPayloadAtLimit(t *testing.T) {
	assert.NoError(t, Validate("image/png", MaxPayloadSize))
}

func TestMediaTypeForExtension(t *testing.T) {
	assert.Equal(t, "application/pdf", MediaTypeForExtension(".pdf"))
	assert.Equal(t, "image/jpeg", MediaTypeForExtension(".JPG"))
	assert.Equal(t, "image/png", MediaTypeForExtension(".png"))
	assert.Equal(t, "", MediaTypeForExtension(".docx"))
}

func TestMediaTypeForFile(t *testing.T) {
	assert.Equal(t, "image/png", MediaTypeForFile("/tmp/shots/cat.png"))
	assert.Equal(t, "", MediaTypeForFile("/tmp/archive.tar.gz"))
}
