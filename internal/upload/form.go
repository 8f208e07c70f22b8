package upload

import (
	"context"
	"errors"
	"strings"

	"github.com/shortreel/backend/internal/apiclient"
	"github.com/shortreel/backend/internal/media"
	"github.com/shortreel/backend/internal/models"
)

// DefaultSubmitMessage is shown when the server gives no reason for a failed submit.
const DefaultSubmitMessage = "Failed to upload video"

// ErrIncompleteForm is returned by Submit before any request when a field is blank.
var ErrIncompleteForm = errors.New("title, description, video and thumbnail are required")

// SubmitError reports a failed Submit. Message is safe to show to users.
type SubmitError struct {
	Status  int
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }

func (e *SubmitError) Unwrap() error { return e.Err }

// Uploader sends one file to the media service.
type Uploader interface {
	Upload(ctx context.Context, file File, kind media.Kind, progress ProgressFunc) (models.UploadResult, error)
}

// VideoCreator persists the finished record.
type VideoCreator interface {
	CreateVideo(ctx context.Context, video models.NewVideo) (models.Video, error)
}

// Form holds the state of a video being published: the two text fields and
// the URLs of the uploaded media. It is not safe for concurrent use.
type Form struct {
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string

	uploader Uploader
	api      VideoCreator
}

// NewForm returns an empty form.
func NewForm(uploader Uploader, api VideoCreator) *Form {
	return &Form{uploader: uploader, api: api}
}

// CanSubmit reports whether every field is filled in.
func (f *Form) CanSubmit() bool {
	for _, v := range []string{f.Title, f.Description, f.VideoURL, f.ThumbnailURL} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// UploadVideo uploads the video file and records its URL.
func (f *Form) UploadVideo(ctx context.Context, file File, progress ProgressFunc) (models.UploadResult, error) {
	result, err := f.upload(ctx, file, media.KindVideo, progress)
	if err == nil {
		f.VideoURL = result.URL
	}
	return result, err
}

// UploadThumbnail uploads the thumbnail image and records its URL.
func (f *Form) UploadThumbnail(ctx context.Context, file File, progress ProgressFunc) (models.UploadResult, error) {
	result, err := f.upload(ctx, file, media.KindImage, progress)
	if err == nil {
		f.ThumbnailURL = result.URL
	}
	return result, err
}

func (f *Form) upload(ctx context.Context, file File, kind media.Kind, progress ProgressFunc) (models.UploadResult, error) {
	if f.uploader == nil {
		return models.UploadResult{}, &FailedError{Err: errors.New("no uploader configured")}
	}
	result, err := f.uploader.Upload(ctx, file, kind, progress)
	if err != nil {
		return models.UploadResult{}, err
	}
	if err := result.Validate(); err != nil {
		return models.UploadResult{}, &FailedError{Err: err}
	}
	return result, nil
}

// Submit creates the record. On success the form is cleared; on failure every
// field is left as it was.
func (f *Form) Submit(ctx context.Context) (models.Video, error) {
	if !f.CanSubmit() {
		return models.Video{}, &SubmitError{Message: ErrIncompleteForm.Error(), Err: ErrIncompleteForm}
	}
	if f.api == nil {
		return models.Video{}, &SubmitError{Message: DefaultSubmitMessage, Err: errors.New("no api client configured")}
	}

	created, err := f.api.CreateVideo(ctx, models.NewVideo{
		Title:        strings.TrimSpace(f.Title),
		Description:  strings.TrimSpace(f.Description),
		VideoURL:     strings.TrimSpace(f.VideoURL),
		ThumbnailURL: strings.TrimSpace(f.ThumbnailURL),
	})
	if err != nil {
		submitErr := &SubmitError{Message: DefaultSubmitMessage, Err: err}
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) {
			submitErr.Status = apiErr.Status
			if apiErr.Message != "" {
				submitErr.Message = apiErr.Message
			}
		}
		return models.Video{}, submitErr
	}

	f.Reset()
	return created, nil
}

// Reset clears every field.
func (f *Form) Reset() {
	f.Title, f.Description, f.VideoURL, f.ThumbnailURL = "", "", "", ""
}
