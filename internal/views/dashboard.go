package views

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"campusvoice/internal/models"
)

// StatTile is one aggregate counter on the dashboard
type StatTile struct {
	Key   string
	Label string
	Value int
}

// DashboardRow is a complaint as listed on the dashboard
type DashboardRow struct {
	ID            int
	ComplaintID   string
	Title         string
	Description   string
	Category      string
	CategoryLabel string
	Location      string
	LocationLabel string
	Status        string
	StatusLabel   string
	AdminNotes    string
	Submitted     string
}

// DashboardFilter mirrors the two select controls. "all" means no filter.
type DashboardFilter struct {
	Status   string
	Category string
}

// Query returns the list query string; "all" and empty values are omitted
func (f DashboardFilter) Query() url.Values {
	q := url.Values{}
	if f.Status != "" && f.Status != models.FilterAll {
		q.Set("status", f.Status)
	}
	if f.Category != "" && f.Category != models.FilterAll {
		q.Set("category", f.Category)
	}
	return q
}

// DashboardView is everything the admin dashboard renders
type DashboardView struct {
	Authenticated bool
	User          *models.User
	Filter        DashboardFilter
	StatTiles     []StatTile
	Rows          []DashboardRow
}

// Empty reports whether the authenticated list has nothing to show
func (v DashboardView) Empty() bool {
	return v.Authenticated && len(v.Rows) == 0
}

// NewDashboardView builds the dashboard. Without a user only the sign-in gate is
// shown; a nil stats leaves the tiles out.
func NewDashboardView(user *models.User, filter DashboardFilter, stats *models.AdminStats, complaints []models.Complaint, loc *time.Location) DashboardView {
	if user == nil {
		return DashboardView{Filter: filter}
	}

	view := DashboardView{
		Authenticated: true,
		User:          user,
		Filter:        filter,
		Rows:          make([]DashboardRow, 0, len(complaints)),
	}
	if stats != nil {
		view.StatTiles = StatTiles(*stats)
	}
	for _, c := range complaints {
		view.Rows = append(view.Rows, newDashboardRow(c, loc))
	}
	return view
}

// StatTiles lays out the four counters in dashboard order
func StatTiles(stats models.AdminStats) []StatTile {
	return []StatTile{
		{Key: "total", Label: "Total Issues", Value: stats.Total},
		{Key: models.StatusPending, Label: StatusShortLabel(models.StatusPending), Value: stats.Pending},
		{Key: models.StatusInProgress, Label: StatusShortLabel(models.StatusInProgress), Value: stats.InProgress},
		{Key: models.StatusResolved, Label: StatusShortLabel(models.StatusResolved), Value: stats.Resolved},
	}
}

func newDashboardRow(c models.Complaint, loc *time.Location) DashboardRow {
	return DashboardRow{
		ID:            c.ID,
		ComplaintID:   c.ComplaintID,
		Title:         c.Title,
		Description:   c.Description,
		Category:      c.Category,
		CategoryLabel: CategoryLabel(c.Category),
		Location:      c.Location,
		LocationLabel: LocationLabel(c.Location),
		Status:        c.Status,
		StatusLabel:   StatusShortLabel(c.Status),
		AdminNotes:    c.AdminNotes.String,
		Submitted:     FormatDateTime(c.CreatedAt, loc),
	}
}

// EditForm is the per-complaint edit dialog
type EditForm struct {
	ID     int
	Status string
	Notes  string
}

// NewEditForm opens the dialog prefilled with the row's status and notes
func NewEditForm(row DashboardRow) EditForm {
	return EditForm{ID: row.ID, Status: row.Status, Notes: row.AdminNotes}
}

// Path is the PATCH target of the dialog
func (f EditForm) Path() string {
	return "/api/admin/complaints/" + strconv.Itoa(f.ID)
}

// Update is the PATCH body. The dialog always sends both fields, so clearing the
// textarea clears the stored notes.
func (f EditForm) Update() *models.ComplaintUpdate {
	status := strings.TrimSpace(f.Status)
	notes := f.Notes
	return &models.ComplaintUpdate{Status: &status, AdminNotes: &notes}
}
