package flock

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// ErrNotDataURL indicates a photo that is not a base64 data URL.
var ErrNotDataURL = errors.New("photo is not a base64 data URL")

// EncodePhoto turns raw image bytes into the data URL stored on a chicken. An empty
// mime type is sniffed from the content.
func EncodePhoto(mime string, data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodePhoto splits a stored data URL into its mime type and raw bytes.
func DecodePhoto(photo string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(photo, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrNotDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Join(ErrNotDataURL, err)
	}
	return mime, data, nil
}
