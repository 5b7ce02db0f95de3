package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMimeType(t *testing.T) {
	tests := map[string]string{
		"a.tar.zip":            "application/zip",
		"DOC.PDF":              "application/pdf",
		"slides.PPTX":          "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"/tmp/photo.jpeg":      "image/jpeg",
		"notes.txt":            "text/plain",
		"archive.7z":           "application/x-7z-compressed",
		"binary.exe":           DefaultMimeType,
		"Makefile":             DefaultMimeType,
		"dir.with.dots/readme": DefaultMimeType,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, MimeType(in))
		})
	}
}
