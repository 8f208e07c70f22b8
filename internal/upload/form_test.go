package upload

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shortreel/backend/internal/apiclient"
	"github.com/shortreel/backend/internal/media"
	"github.com/shortreel/backend/internal/models"
)

type stubUploader struct {
	kinds  []media.Kind
	result models.UploadResult
	err    error
}

func (s *stubUploader) Upload(_ context.Context, _ File, kind media.Kind, progress ProgressFunc) (models.UploadResult, error) {
	s.kinds = append(s.kinds, kind)
	if s.err != nil {
		return models.UploadResult{}, s.err
	}
	if progress != nil {
		progress(100)
	}
	return s.result, nil
}

type stubCreator struct {
	got   []models.NewVideo
	video models.Video
	err   error
}

func (s *stubCreator) CreateVideo(_ context.Context, v models.NewVideo) (models.Video, error) {
	s.got = append(s.got, v)
	if s.err != nil {
		return models.Video{}, s.err
	}
	return s.video, nil
}

func filledForm(api VideoCreator) *Form {
	f := NewForm(&stubUploader{}, api)
	f.Title = "Sunset"
	f.Description = "Beach timelapse"
	f.VideoURL = "https://ik.example.com/v.mp4"
	f.ThumbnailURL = "https://ik.example.com/t.jpg"
	return f
}

func TestFormCanSubmit(t *testing.T) {
	f := NewForm(nil, nil)
	if f.CanSubmit() {
		t.Fatal("empty form must not be submittable")
	}

	f = filledForm(nil)
	if !f.CanSubmit() {
		t.Fatal("filled form should be submittable")
	}
	f.ThumbnailURL = "   "
	if f.CanSubmit() {
		t.Fatal("blank thumbnail must block submit")
	}
}

func TestFormUploadsSetURLs(t *testing.T) {
	uploader := &stubUploader{result: models.UploadResult{URL: "https://ik.example.com/x"}}
	f := NewForm(uploader, nil)

	if _, err := f.UploadVideo(context.Background(), File{}, nil); err != nil {
		t.Fatalf("upload video: %v", err)
	}
	if _, err := f.UploadThumbnail(context.Background(), File{}, nil); err != nil {
		t.Fatalf("upload thumbnail: %v", err)
	}
	if f.VideoURL != "https://ik.example.com/x" || f.ThumbnailURL != "https://ik.example.com/x" {
		t.Fatalf("urls not recorded: %+v", f)
	}
	if len(uploader.kinds) != 2 || uploader.kinds[0] != media.KindVideo || uploader.kinds[1] != media.KindImage {
		t.Fatalf("unexpected kinds %v", uploader.kinds)
	}
}

func TestFormUploadFailureKeepsState(t *testing.T) {
	f := NewForm(&stubUploader{err: &FailedError{Err: errors.New("boom")}}, nil)
	f.VideoURL = "https://ik.example.com/old.mp4"

	if _, err := f.UploadVideo(context.Background(), File{}, nil); !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed got %v", err)
	}
	if f.VideoURL != "https://ik.example.com/old.mp4" {
		t.Fatal("failed upload must not change the recorded url")
	}

	f = NewForm(&stubUploader{result: models.UploadResult{URL: "relative/path"}}, nil)
	if _, err := f.UploadThumbnail(context.Background(), File{}, nil); !errors.Is(err, models.ErrInvalidUploadResult) {
		t.Fatalf("expected invalid result error got %v", err)
	}
	if f.ThumbnailURL != "" {
		t.Fatal("invalid result must not be recorded")
	}
}

func TestFormSubmitSuccessClears(t *testing.T) {
	api := &stubCreator{video: models.Video{ID: "b2c1a3f0-0000-4000-8000-000000000001"}}
	f := filledForm(api)

	created, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected created record")
	}
	if len(api.got) != 1 || api.got[0].Title != "Sunset" || api.got[0].ThumbnailURL != "https://ik.example.com/t.jpg" {
		t.Fatalf("unexpected payload %+v", api.got)
	}
	if f.Title != "" || f.Description != "" || f.VideoURL != "" || f.ThumbnailURL != "" {
		t.Fatalf("expected form to be cleared, got %+v", f)
	}
}

func TestFormSubmitFailureKeepsFields(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantMsg    string
		wantStatus int
	}{
		{"server message", &apiclient.Error{Status: http.StatusBadRequest, Message: "videoUrl and thumbnailUrl must be absolute http(s) URLs"}, "videoUrl and thumbnailUrl must be absolute http(s) URLs", http.StatusBadRequest},
		{"no server message", &apiclient.Error{Status: http.StatusInternalServerError}, DefaultSubmitMessage, http.StatusInternalServerError},
		{"transport", errors.New("connection reset"), DefaultSubmitMessage, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := filledForm(&stubCreator{err: tc.err})

			_, err := f.Submit(context.Background())
			var submitErr *SubmitError
			if !errors.As(err, &submitErr) {
				t.Fatalf("expected SubmitError got %v", err)
			}
			if submitErr.Message != tc.wantMsg || submitErr.Status != tc.wantStatus {
				t.Fatalf("unexpected error %+v", submitErr)
			}
			if !f.CanSubmit() || f.Title != "Sunset" {
				t.Fatal("fields must be kept after a failed submit")
			}
		})
	}
}

func TestFormSubmitIncompleteSkipsRequest(t *testing.T) {
	api := &stubCreator{}
	f := NewForm(nil, api)
	f.Title = "Only a title"

	_, err := f.Submit(context.Background())
	if !errors.Is(err, ErrIncompleteForm) {
		t.Fatalf("expected ErrIncompleteForm got %v", err)
	}
	if len(api.got) != 0 {
		t.Fatal("incomplete form must not reach the api")
	}
}
