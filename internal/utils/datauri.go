// Package utils provides small, generic helper functions used across
// different layers of the application. This file handles the data-URL image
// payloads submitted by the mobile client.
package utils

import (
	"regexp"
	"strings"
)

// dataURLRE matches "data:image/<subtype>;base64,<payload>".
var dataURLRE = regexp.MustCompile(`^data:(image/\w+);base64,(.+)$`)

// IsImageDataURL reports whether s looks like a base64 image data URL.
func IsImageDataURL(s string) bool {
	return strings.HasPrefix(s, "data:image/") && dataURLRE.MatchString(s)
}

// ExtractBase64 returns the raw base64 payload of an image data URL, or ""
// when the input is not a valid data URL.
func ExtractBase64(dataURL string) string {
	m := dataURLRE.FindStringSubmatch(dataURL)
	if m == nil {
		return ""
	}
	return m[2]
}

// MimeType returns the MIME type of an image data URL, defaulting to
// image/jpeg when the input cannot be parsed.
func MimeType(dataURL string) string {
	m := dataURLRE.FindStringSubmatch(dataURL)
	if m == nil {
		return "image/jpeg"
	}
	return m[1]
}

// DataURL assembles a data URL from a MIME type and base64 payload, the
// shape the mobile client expects back.
func DataURL(mimeType, base64Data string) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64Data
}
