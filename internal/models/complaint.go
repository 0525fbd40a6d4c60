// Package models defines the data structures shared by the CampusVoice store, handlers and views.
package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Complaint statuses. Any status may move to any other.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
)

// FilterAll is the query value meaning "no filter"
const FilterAll = "all"

// ValidStatuses lists the statuses in workflow order
var ValidStatuses = []string{StatusPending, StatusInProgress, StatusResolved}

// IsValidStatus reports whether s is one of the three complaint statuses
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Complaint is an anonymous issue report tracked by its public ComplaintID
type Complaint struct {
	ID          int            `json:"id" db:"id"`
	ComplaintID string         `json:"complaint_id" db:"complaint_id"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`
	Category    string         `json:"category" db:"category"`
	Location    string         `json:"location" db:"location"`
	Status      string         `json:"status" db:"status"`
	AdminNotes  sql.NullString `json:"admin_notes" db:"admin_notes"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// MarshalJSON renders admin_notes as null when unset and timestamps in UTC
func (c Complaint) MarshalJSON() (result0 []byte, err error) {
	var notes *string
	if c.AdminNotes.Valid {
		notes = &c.AdminNotes.String
	}
	return json.Marshal(&struct {
		ID          int     `json:"id"`
		ComplaintID string  `json:"complaint_id"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Location    string  `json:"location"`
		Status      string  `json:"status"`
		AdminNotes  *string `json:"admin_notes"`
		CreatedAt   string  `json:"created_at"`
		UpdatedAt   string  `json:"updated_at"`
	}{
		ID:          c.ID,
		ComplaintID: c.ComplaintID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Location:    c.Location,
		Status:      c.Status,
		AdminNotes:  notes,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// NewComplaint is the public submission payload
type NewComplaint struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
}

// ComplaintUpdate is an admin edit. Nil fields are left untouched;
// a non-nil empty AdminNotes clears the note text to "".
// AdminNotesSet marks an explicit JSON null, which resets the note to NULL.
type ComplaintUpdate struct {
	Status        *string `json:"status,omitempty"`
	AdminNotes    *string `json:"admin_notes,omitempty"`
	AdminNotesSet bool    `json:"-"`
}

// UnmarshalJSON records whether admin_notes was present, even as null
func (u *ComplaintUpdate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Status     *string         `json:"status"`
		AdminNotes json.RawMessage `json:"admin_notes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*u = ComplaintUpdate{Status: raw.Status}
	if raw.AdminNotes == nil {
		return nil
	}
	u.AdminNotesSet = true
	if string(raw.AdminNotes) == "null" {
		return nil
	}
	var notes string
	if err := json.Unmarshal(raw.AdminNotes, &notes); err != nil {
		return err
	}
	u.AdminNotes = &notes
	return nil
}

// NotesChanged reports whether the edit writes admin_notes
func (u *ComplaintUpdate) NotesChanged() bool {
	return u.AdminNotesSet || u.AdminNotes != nil
}

// NotesValue is the admin_notes column value; NULL when cleared with null
func (u *ComplaintUpdate) NotesValue() sql.NullString {
	if u.AdminNotes == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *u.AdminNotes, Valid: true}
}

// ComplaintFilter narrows ListComplaints. Empty or "all" means no filter.
type ComplaintFilter struct {
	Status   string
	Category string
}

// Normalized returns the filter with "all" mapped to the empty string
func (f ComplaintFilter) Normalized() ComplaintFilter {
	if f.Status == FilterAll {
		f.Status = ""
	}
	if f.Category == FilterAll {
		f.Category = ""
	}
	return f
}

// AdminStats holds complaint counts computed at request time
type AdminStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}
