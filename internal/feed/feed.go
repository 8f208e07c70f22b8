// Package feed holds the client-side working set behind the feed and detail views.
package feed

import (
	"context"
	"slices"
	"strings"

	"github.com/shortreel/backend/internal/models"
)

// Lister fetches every record, newest first.
type Lister interface {
	ListVideos(ctx context.Context, query string) ([]models.Video, error)
}

// Filter returns the records whose title or description contains term,
// ignoring case, in their original order. An empty term returns all records.
// The input slice is never modified.
func Filter(videos []models.Video, term string) []models.Video {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if term == "" ||
			strings.Contains(strings.ToLower(v.Title), term) ||
			strings.Contains(strings.ToLower(v.Description), term) {
			out = append(out, v)
		}
	}
	return out
}

// View keeps the full list and the currently visible subset. It is not safe
// for concurrent use.
type View struct {
	all     []models.Video
	visible []models.Video
	term    string
}

// Load replaces the working set with a fresh fetch and reapplies the current search.
func (v *View) Load(ctx context.Context, lister Lister) error {
	videos, err := lister.ListVideos(ctx, "")
	if err != nil {
		return err
	}
	v.all = slices.Clone(videos)
	v.visible = Filter(v.all, v.term)
	return nil
}

// Search narrows the visible set to records matching term.
func (v *View) Search(term string) {
	v.term = term
	v.visible = Filter(v.all, term)
}

// Term returns the active search term.
func (v *View) Term() string {
	return v.term
}

// Remove drops the record with id from both sets without fetching again.
// It reports whether anything was removed.
func (v *View) Remove(id string) bool {
	match := func(r models.Video) bool { return r.ID == id }
	before := len(v.all)
	v.all = slices.DeleteFunc(v.all, match)
	v.visible = slices.DeleteFunc(v.visible, match)
	return len(v.all) != before
}

// Find returns the record with id from the full set.
func (v *View) Find(id string) (models.Video, bool) {
	i := slices.IndexFunc(v.all, func(r models.Video) bool { return r.ID == id })
	if i < 0 {
		return models.Video{}, false
	}
	return v.all[i], true
}

// Visible returns a copy of the records matching the current search.
func (v *View) Visible() []models.Video {
	return slices.Clone(v.visible)
}

// All returns a copy of the full list.
func (v *View) All() []models.Video {
	return slices.Clone(v.all)
}
