package models

import "errors"

// ErrInvalidUploadResult indicates a media service response without a usable URL.
var ErrInvalidUploadResult = errors.New("upload result is missing an absolute url")

// UploadCredential authorizes a single direct upload to the media service.
type UploadCredential struct {
	Token     string `json:"token"`
	Signature string `json:"signature"`
	Expire    int64  `json:"expire"`
}

// UploadResult describes an object stored by the media service.
type UploadResult struct {
	URL          string `json:"url"`
	FileID       string `json:"fileId,omitempty"`
	Name         string `json:"name,omitempty"`
	FilePath     string `json:"filePath,omitempty"`
	FileType     string `json:"fileType,omitempty"`
	Size         int64  `json:"size,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Height       int    `json:"height,omitempty"`
	Width        int    `json:"width,omitempty"`
}

// Validate ensures the result can be trusted by the upload form.
func (r UploadResult) Validate() error {
	if !IsAbsoluteHTTPURL(r.URL) {
		return ErrInvalidUploadResult
	}
	return nil
}
