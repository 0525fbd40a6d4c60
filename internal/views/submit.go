package views

import (
	"net/url"
	"strings"

	"campusvoice/internal/models"
)

// SubmitForm is the state of the anonymous submission form
type SubmitForm struct {
	Title       string
	Description string
	Category    string
	Location    string

	// SubmittedID is the tracking code returned by the last successful submit
	SubmittedID string
}

// CanSubmit reports whether every field holds a non-blank value
func (f SubmitForm) CanSubmit() bool {
	for _, v := range []string{f.Title, f.Description, f.Category, f.Location} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Request converts the form into the POST /api/complaints body
func (f SubmitForm) Request() *models.NewComplaint {
	return &models.NewComplaint{
		Title:       f.Title,
		Description: f.Description,
		Category:    f.Category,
		Location:    f.Location,
	}
}

// Submitted returns a cleared form remembering the issued tracking code
func (f SubmitForm) Submitted(complaintID string) SubmitForm {
	return SubmitForm{SubmittedID: complaintID}
}

// TrackingLink is the relative URL that opens the tracking page for id
func TrackingLink(id string) string {
	return "/track?id=" + url.QueryEscape(id)
}
