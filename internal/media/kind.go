package media

import "strings"

// Kind is the category of file an upload slot accepts.
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

const (
	// MaxVideoSize is the largest accepted video upload.
	MaxVideoSize int64 = 100 * 1024 * 1024
	// MaxImageSize is the largest accepted image upload.
	MaxImageSize int64 = 10 * 1024 * 1024
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindVideo || k == KindImage
}

// MaxSize returns the size ceiling for the kind.
func (k Kind) MaxSize() int64 {
	if k == KindVideo {
		return MaxVideoSize
	}
	return MaxImageSize
}

// SizeLabel is the human readable ceiling used in error messages.
func (k Kind) SizeLabel() string {
	if k == KindVideo {
		return "100MB"
	}
	return "10MB"
}

// Accepts reports whether a declared media type belongs to the kind.
func (k Kind) Accepts(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return k.Valid() && strings.HasPrefix(ct, string(k)+"/")
}

// KindOf maps a declared media type to its kind, if any.
func KindOf(contentType string) (Kind, bool) {
	for _, k := range []Kind{KindVideo, KindImage} {
		if k.Accepts(contentType) {
			return k, true
		}
	}
	return "", false
}
