// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// exifTextFields are the free-text EXIF tags that can carry personal data
var exifTextFields = []exif.FieldName{
	exif.ImageDescription,
	exif.Artist,
	exif.Copyright,
	exif.UserComment,
}

func extractImage(path string, logger zerolog.Logger) (*Content, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening image %s: %w", path, err)
	}
	defer f.Close()

	content := &Content{Encoding: "exif"}
	x, err := exif.Decode(f)
	if err != nil {
		logger.Debug().Str("file", path).Err(err).Msg("no EXIF data")
		return content, nil
	}

	content.Metadata = map[string]string{}
	for _, name := range exifTextFields {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		value := tagText(name, tag)
		if value == "" {
			continue
		}
		content.Metadata[string(name)] = value
	}
	if len(content.Metadata) == 0 {
		content.Metadata = nil
	}
	return content, nil
}

// tagText decodes an ASCII tag or a UserComment with its 8-byte charset header
func tagText(name exif.FieldName, tag *tiff.Tag) string {
	if name == exif.UserComment {
		raw := tag.Val
		if len(raw) > 8 {
			raw = raw[8:]
		}
		return strings.TrimSpace(strings.Trim(string(raw), "\x00"))
	}
	if s, err := tag.StringVal(); err == nil {
		return strings.TrimSpace(strings.Trim(s, "\x00"))
	}
	return strings.Trim(tag.String(), `"`)
}
