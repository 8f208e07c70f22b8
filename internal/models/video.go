package models

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Default display dimensions for portrait short-form video.
const (
	DefaultVideoHeight = 1920
	DefaultVideoWidth  = 1080
)

var (
	// ErrMissingVideoFields indicates one of the required metadata fields is blank.
	ErrMissingVideoFields = errors.New("title, description, videoUrl and thumbnailUrl are required")
	// ErrInvalidMediaURL indicates a media URL is not an absolute http(s) URL.
	ErrInvalidMediaURL = errors.New("videoUrl and thumbnailUrl must be absolute http(s) URLs")
	// ErrInvalidQuality indicates a transformation quality outside 1-100.
	ErrInvalidQuality = errors.New("transformation quality must be between 1 and 100")
)

// Transformation describes how a video should be rendered by players.
type Transformation struct {
	Height  int  `json:"height"`
	Width   int  `json:"width"`
	Quality *int `json:"quality,omitempty"`
}

// Video is a persisted short-form video record.
type Video struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"ownerId,omitempty"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	VideoURL       string         `json:"videoUrl"`
	ThumbnailURL   string         `json:"thumbnailUrl"`
	Controls       bool           `json:"controls"`
	Transformation Transformation `json:"transformation"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// NewVideo is the payload accepted when creating a video record.
type NewVideo struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	VideoURL       string          `json:"videoUrl"`
	ThumbnailURL   string          `json:"thumbnailUrl"`
	Controls       *bool           `json:"controls,omitempty"`
	Transformation *Transformation `json:"transformation,omitempty"`
}

// Normalize trims the text fields in place.
func (n *NewVideo) Normalize() {
	n.Title = strings.TrimSpace(n.Title)
	n.Description = strings.TrimSpace(n.Description)
	n.VideoURL = strings.TrimSpace(n.VideoURL)
	n.ThumbnailURL = strings.TrimSpace(n.ThumbnailURL)
}

// Validate checks required fields, media URLs and the optional quality range.
func (n NewVideo) Validate() error {
	if n.Title == "" || n.Description == "" || n.VideoURL == "" || n.ThumbnailURL == "" {
		return ErrMissingVideoFields
	}
	if !IsAbsoluteHTTPURL(n.VideoURL) || !IsAbsoluteHTTPURL(n.ThumbnailURL) {
		return ErrInvalidMediaURL
	}
	if n.Transformation != nil && n.Transformation.Quality != nil {
		if q := *n.Transformation.Quality; q < 1 || q > 100 {
			return ErrInvalidQuality
		}
	}
	return nil
}

// Video builds a record for ownerID with defaults applied. ID and timestamps
// are left for the store to assign.
func (n NewVideo) Video(ownerID string) Video {
	controls := true
	if n.Controls != nil {
		controls = *n.Controls
	}

	transformation := Transformation{Height: DefaultVideoHeight, Width: DefaultVideoWidth}
	if n.Transformation != nil {
		if n.Transformation.Height > 0 {
			transformation.Height = n.Transformation.Height
		}
		if n.Transformation.Width > 0 {
			transformation.Width = n.Transformation.Width
		}
		if n.Transformation.Quality != nil {
			q := *n.Transformation.Quality
			transformation.Quality = &q
		}
	}

	return Video{
		OwnerID:        ownerID,
		Title:          n.Title,
		Description:    n.Description,
		VideoURL:       n.VideoURL,
		ThumbnailURL:   n.ThumbnailURL,
		Controls:       controls,
		Transformation: transformation,
	}
}

// IsAbsoluteHTTPURL reports whether raw parses as an http or https URL with a host.
func IsAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
