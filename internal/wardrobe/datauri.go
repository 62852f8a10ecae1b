package wardrobe

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// MaxPhotoBytes is the upload limit for a single photo (decoded size).
const MaxPhotoBytes = 4 * 1024 * 1024

// supportedImageTypes is the MIME allow-list for item photos.
var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// IsSupportedImageType reports whether mimeType is accepted for item photos.
func IsSupportedImageType(mimeType string) bool {
	return supportedImageTypes[strings.ToLower(mimeType)]
}

var errNotDataURI = errors.New("not a data URI")

// DataURI is a decoded base64 data URI.
type DataURI struct {
	MIMEType string
	Data     []byte
}

// ParseDataURI decodes a "data:<mime>[;param];base64,<payload>" string.
// Only base64 payloads are accepted.
func ParseDataURI(s string) (DataURI, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return DataURI{}, errNotDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURI{}, fmt.Errorf("data URI has no payload separator")
	}

	params := strings.Split(header, ";")
	if len(params) < 2 || params[len(params)-1] != "base64" {
		return DataURI{}, fmt.Errorf("data URI is not base64 encoded")
	}
	mimeType := strings.ToLower(strings.TrimSpace(params[0]))
	if mimeType == "" {
		return DataURI{}, fmt.Errorf("data URI has no MIME type")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return DataURI{}, fmt.Errorf("data URI payload: %w", err)
	}
	return DataURI{MIMEType: mimeType, Data: data}, nil
}

// String re-encodes the data URI.
func (d DataURI) String() string {
	return "data:" + d.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(d.Data)
}
