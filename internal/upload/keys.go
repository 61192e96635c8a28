package upload

import (
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// LogicalField is the catalog field an upload is destined for. It only
// selects the key prefix.
type LogicalField int

const (
	FieldUnspecified LogicalField = iota
	FieldVideo
	FieldTrailer
	FieldThumbnail
	FieldBackdrop
)

var fieldNames = map[string]LogicalField{
	"video_file":   FieldVideo,
	"trailer_file": FieldTrailer,
	"thumbnail":    FieldThumbnail,
	"backdrop":     FieldBackdrop,
}

// ParseLogicalField maps a request field name to its LogicalField. Unknown and
// empty names are FieldUnspecified.
func ParseLogicalField(name string) LogicalField {
	if f, ok := fieldNames[strings.TrimSpace(name)]; ok {
		return f
	}
	return FieldUnspecified
}

func (f LogicalField) String() string {
	for name, field := range fieldNames {
		if field == f {
			return name
		}
	}
	return "unspecified"
}

const (
	PrefixFull       = "movies/full/"
	PrefixTrailers   = "movies/trailers/"
	PrefixThumbnails = "movies/thumbnails/"
	PrefixBackdrops  = "movies/backdrops/"
	PrefixUploads    = "movies/uploads/"
)

var fieldPrefixes = map[LogicalField]string{
	FieldVideo:     PrefixFull,
	FieldTrailer:   PrefixTrailers,
	FieldThumbnail: PrefixThumbnails,
	FieldBackdrop:  PrefixBackdrops,
}

// KeyPrefix picks the storage prefix: an explicit field wins, then the MIME
// family of fileType, then the generic uploads prefix.
func KeyPrefix(field LogicalField, fileType string) string {
	if prefix, ok := fieldPrefixes[field]; ok {
		return prefix
	}

	switch {
	case strings.HasPrefix(fileType, "video/"):
		return PrefixFull
	case strings.HasPrefix(fileType, "image/"):
		return PrefixThumbnails
	default:
		return PrefixUploads
	}
}

// Extension returns fileName's extension including the dot, exactly as the
// caller wrote it. Directories in fileName are ignored, so the result never
// holds a path separator. An extension with whitespace or control characters
// is left off the key.
func Extension(fileName string) string {
	ext := path.Ext(strings.ReplaceAll(fileName, "\\", "/"))
	for _, r := range ext {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ""
		}
	}
	return ext
}

// BuildObjectKey derives a fresh storage key for an upload. The basename is a
// random UUID, so two calls never yield the same key.
func BuildObjectKey(field LogicalField, fileType, fileName string) string {
	return KeyPrefix(field, fileType) + uuid.NewString() + Extension(fileName)
}
