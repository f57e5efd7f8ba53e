package utils

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrUnsupportedImage = errors.New("only .jpeg, .jpg and .png formats are allowed")

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
}

// ImageFileName validates an uploaded image and returns a unique file name
// for it, keeping a sanitized form of the original name for readability.
func ImageFileName(header *multipart.FileHeader) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(header.Header.Get("Content-Type"))]
	if !ok {
		return "", ErrUnsupportedImage
	}

	base := strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	if len(base) > 40 {
		base = base[:40]
	}
	return fmt.Sprintf("%s-%s%s", uuid.NewString(), base, ext), nil
}
