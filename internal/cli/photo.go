package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/ncruces/zenity"

	"github.com/fpang/styleai/internal/wardrobe"
)

// ErrCanceled is returned when the user dismisses the photo picker.
var ErrCanceled = errors.New("photo selection canceled")

// PickPhoto opens the native file dialog for a single garment photo.
func PickPhoto() (string, error) {
	selected, err := zenity.SelectFile(
		zenity.Title("Select a clothing photo"),
		zenity.FileFilters{
			{
				Name:     "Images",
				Patterns: []string{"*.jpg", "*.jpeg", "*.png", "*.webp"},
			},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", ErrCanceled
		}
		return "", fmt.Errorf("photo picker failed: %w", err)
	}
	return selected, nil
}

// ReadPhoto loads an image file as a data URI. The MIME type is sniffed
// from the content, not the extension. Format and size checks are left to
// the flows.
func ReadPhoto(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if len(data) > wardrobe.MaxPhotoBytes {
		return "", fmt.Errorf("photo %s is %d bytes, limit is %d", path, len(data), wardrobe.MaxPhotoBytes)
	}
	d := wardrobe.DataURI{MIMEType: http.DetectContentType(data), Data: data}
	return d.String(), nil
}
