// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"encoding/base64"
	"errors"
	"regexp"
)

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// EncodeDataURL wraps PNG bytes as a data URL.
func EncodeDataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// DecodeDataURL strips the data:image/...;base64, prefix and decodes the
// payload.
func DecodeDataURL(s string) ([]byte, error) {
	loc := dataURLPrefix.FindStringIndex(s)
	if loc == nil {
		return nil, errors.New("not a base64 image data URL")
	}
	return base64.StdEncoding.DecodeString(s[loc[1]:])
}
