package schema

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder for image.DecodeConfig
	_ "image/png"  // register PNG decoder for image.DecodeConfig

	_ "golang.org/x/image/webp" // register WebP decoder for image.DecodeConfig

	"github.com/fpang/styleai/internal/wardrobe"
)

// CheckImageDataURI verifies that s is a base64 data URI of a supported
// image type, within the upload limit, whose payload decodes as the
// declared format. Only the image header is decoded.
func CheckImageDataURI(s string) error {
	d, err := wardrobe.ParseDataURI(s)
	if err != nil {
		return err
	}
	if !wardrobe.IsSupportedImageType(d.MIMEType) {
		return fmt.Errorf("unsupported image type %q", d.MIMEType)
	}
	if len(d.Data) > wardrobe.MaxPhotoBytes {
		return fmt.Errorf("photo is %d bytes, limit is %d", len(d.Data), wardrobe.MaxPhotoBytes)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(d.Data))
	if err != nil {
		return fmt.Errorf("payload is not a readable image: %w", err)
	}
	if "image/"+format != d.MIMEType {
		return fmt.Errorf("payload is %s but declared as %s", format, d.MIMEType)
	}
	return nil
}
