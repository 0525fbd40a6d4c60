package views

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"campusvoice/internal/models"
)

// TrackingState is the phase of a tracking lookup
type TrackingState int

// Tracking page phases
const (
	TrackingIdle TrackingState = iota
	TrackingLoading
	TrackingFound
	TrackingNotFound
	TrackingError
)

// TransientErrorMessage is shown when a lookup fails for any reason but a 404
const TransientErrorMessage = "An error occurred while searching. Please try again."

const notFoundFormat = "No complaint found with ID %q."

var trackingStateNames = map[TrackingState]string{
	TrackingIdle:     "idle",
	TrackingLoading:  "loading",
	TrackingFound:    "found",
	TrackingNotFound: "not_found",
	TrackingError:    "error",
}

func (s TrackingState) String() string {
	if name, ok := trackingStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// TrackingDetails is a found complaint with its labels resolved
type TrackingDetails struct {
	ComplaintID       string
	Title             string
	Description       string
	CategoryLabel     string
	LocationLabel     string
	Status            string
	StatusLabel       string
	StatusDescription string
	AdminNotes        string
	HasAdminNotes     bool
	Submitted         string
	LastUpdated       string
}

// TrackingView is everything the tracking page renders
type TrackingView struct {
	Query   string
	State   TrackingState
	Details *TrackingDetails
	Message string
}

// TrackingQuery picks the code to look up: the ?id= parameter wins over typed input.
// The second result is false when there is nothing to search for.
func TrackingQuery(fromURL, typed string) (string, bool) {
	if q := strings.TrimSpace(fromURL); q != "" {
		return q, true
	}
	q := strings.TrimSpace(typed)
	return q, q != ""
}

// NewTrackingLoading is the view while a lookup is in flight
func NewTrackingLoading(query string) TrackingView {
	return TrackingView{Query: query, State: TrackingLoading}
}

// NewTrackingView derives the page from a GET /api/complaints/:id outcome.
// A nil complaint with a 200 status, any non-404 failure and a transport
// error all read as transient.
func NewTrackingView(query string, status int, complaint *models.Complaint, err error, loc *time.Location) TrackingView {
	view := TrackingView{Query: query}

	switch {
	case err != nil:
		view.State = TrackingError
		view.Message = TransientErrorMessage
	case status == http.StatusNotFound:
		view.State = TrackingNotFound
		view.Message = fmt.Sprintf(notFoundFormat, query)
	case status == http.StatusOK && complaint != nil:
		view.State = TrackingFound
		view.Details = newTrackingDetails(complaint, loc)
	default:
		view.State = TrackingError
		view.Message = TransientErrorMessage
	}

	return view
}

func newTrackingDetails(c *models.Complaint, loc *time.Location) *TrackingDetails {
	details := &TrackingDetails{
		ComplaintID:       c.ComplaintID,
		Title:             c.Title,
		Description:       c.Description,
		CategoryLabel:     CategoryLabel(c.Category),
		LocationLabel:     LocationLabel(c.Location),
		Status:            c.Status,
		StatusLabel:       StatusLabel(c.Status),
		StatusDescription: StatusDescription(c.Status),
		Submitted:         FormatTimestamp(c.CreatedAt, loc),
		LastUpdated:       FormatTimestamp(c.UpdatedAt, loc),
	}
	// an empty note is not shown
	if c.AdminNotes.Valid && c.AdminNotes.String != "" {
		details.AdminNotes = c.AdminNotes.String
		details.HasAdminNotes = true
	}
	return details
}
