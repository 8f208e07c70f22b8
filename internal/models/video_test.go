package models

import (
	"errors"
	"testing"
)

func TestNewVideoValidate(t *testing.T) {
	valid := NewVideo{Title: "T", Description: "D", VideoURL: "https://x/v.mp4", ThumbnailURL: "https://x/t.jpg"}
	quality := func(q int) *Transformation { return &Transformation{Quality: &q} }

	cases := []struct {
		name string
		mut  func(n *NewVideo)
		want error
	}{
		{"valid", func(n *NewVideo) {}, nil},
		{"missingTitle", func(n *NewVideo) { n.Title = "" }, ErrMissingVideoFields},
		{"missingThumbnail", func(n *NewVideo) { n.ThumbnailURL = "" }, ErrMissingVideoFields},
		{"relativeVideo", func(n *NewVideo) { n.VideoURL = "/v.mp4" }, ErrInvalidMediaURL},
		{"ftpThumbnail", func(n *NewVideo) { n.ThumbnailURL = "ftp://x/t.jpg" }, ErrInvalidMediaURL},
		{"qualityZero", func(n *NewVideo) { n.Transformation = quality(0) }, ErrInvalidQuality},
		{"qualityHigh", func(n *NewVideo) { n.Transformation = quality(101) }, ErrInvalidQuality},
		{"qualityOK", func(n *NewVideo) { n.Transformation = quality(80) }, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := valid
			tc.mut(&n)
			if err := n.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v got %v", tc.want, err)
			}
		})
	}
}

func TestNewVideoDefaults(t *testing.T) {
	n := NewVideo{Title: " T ", Description: "D", VideoURL: "https://x/v.mp4", ThumbnailURL: "https://x/t.jpg"}
	n.Normalize()
	v := n.Video("user-1")

	if v.Title != "T" {
		t.Fatalf("expected trimmed title got %q", v.Title)
	}
	if !v.Controls {
		t.Fatal("expected controls to default to true")
	}
	if v.Transformation.Height != DefaultVideoHeight || v.Transformation.Width != DefaultVideoWidth {
		t.Fatalf("unexpected default transformation %+v", v.Transformation)
	}
	if v.Transformation.Quality != nil {
		t.Fatal("expected no default quality")
	}
	if v.OwnerID != "user-1" {
		t.Fatalf("unexpected owner %q", v.OwnerID)
	}

	off := false
	q := 70
	n.Controls = &off
	n.Transformation = &Transformation{Width: 720, Quality: &q}
	v = n.Video("")
	if v.Controls {
		t.Fatal("expected explicit controls=false to be kept")
	}
	if v.Transformation.Width != 720 || v.Transformation.Height != DefaultVideoHeight || *v.Transformation.Quality != 70 {
		t.Fatalf("unexpected transformation %+v", v.Transformation)
	}
}

func TestUploadResultValidate(t *testing.T) {
	if err := (UploadResult{URL: "https://media.example.com/v.mp4"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, raw := range []string{"", "v.mp4", "//media.example.com/v.mp4"} {
		if err := (UploadResult{URL: raw}).Validate(); !errors.Is(err, ErrInvalidUploadResult) {
			t.Fatalf("expected invalid result for %q got %v", raw, err)
		}
	}
}
