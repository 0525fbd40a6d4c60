package models

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplaint_MarshalJSON(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	updated := created.Add(90 * time.Minute)

	tests := []struct {
		name      string
		complaint Complaint
		expected  string
	}{
		{
			name: "fresh complaint has null notes",
			complaint: Complaint{
				ID:          1,
				ComplaintID: "CV-LX3K9ZQ4A7",
				Title:       "Broken projector",
				Description: "Room 204 projector flickers",
				Category:    "technology",
				Location:    "main-building",
				Status:      StatusPending,
				CreatedAt:   created,
				UpdatedAt:   created,
			},
			expected: `{"id":1,"complaint_id":"CV-LX3K9ZQ4A7","title":"Broken projector","description":"Room 204 projector flickers","category":"technology","location":"main-building","status":"pending","admin_notes":null,"created_at":"2025-03-01T09:30:00Z","updated_at":"2025-03-01T09:30:00Z"}`,
		},
		{
			name: "resolved complaint with notes",
			complaint: Complaint{
				ID:          2,
				ComplaintID: "CV-LX3K9ZR0B1",
				Title:       "Leaking tap",
				Description: "Second floor bathroom",
				Category:    "utilities",
				Location:    "dormitory",
				Status:      StatusResolved,
				AdminNotes:  sql.NullString{String: "Fixed", Valid: true},
				CreatedAt:   created,
				UpdatedAt:   updated,
			},
			expected: `{"id":2,"complaint_id":"CV-LX3K9ZR0B1","title":"Leaking tap","description":"Second floor bathroom","category":"utilities","location":"dormitory","status":"resolved","admin_notes":"Fixed","created_at":"2025-03-01T09:30:00Z","updated_at":"2025-03-01T11:00:00Z"}`,
		},
		{
			name: "empty notes are kept distinct from null",
			complaint: Complaint{
				ID:          3,
				ComplaintID: "CV-X",
				Status:      StatusInProgress,
				AdminNotes:  sql.NullString{String: "", Valid: true},
				CreatedAt:   created,
				UpdatedAt:   created.Add(1500 * time.Microsecond),
			},
			expected: `{"id":3,"complaint_id":"CV-X","title":"","description":"","category":"","location":"","status":"in-progress","admin_notes":"","created_at":"2025-03-01T09:30:00Z","updated_at":"2025-03-01T09:30:00.0015Z"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.complaint)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestComplaint_MarshalJSONIsStable(t *testing.T) {
	c := Complaint{ID: 9, ComplaintID: "CV-ABC", Status: StatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now()}

	first, err := json.Marshal(c)
	require.NoError(t, err)
	second, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{"pending", "in-progress", "resolved"} {
		assert.True(t, IsValidStatus(s), s)
	}
	for _, s := range []string{"", "bogus", "Pending", "in_progress", "all"} {
		assert.False(t, IsValidStatus(s), s)
	}
}

func TestComplaintFilter_Normalized(t *testing.T) {
	assert.Equal(t, ComplaintFilter{}, ComplaintFilter{Status: "all", Category: "all"}.Normalized())
	assert.Equal(t,
		ComplaintFilter{Status: "resolved", Category: "safety"},
		ComplaintFilter{Status: "resolved", Category: "safety"}.Normalized())
	assert.Equal(t,
		ComplaintFilter{Category: "other"},
		ComplaintFilter{Status: "all", Category: "other"}.Normalized())
}

func TestComplaintUpdate_DecodePresence(t *testing.T) {
	var update ComplaintUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"admin_notes":""}`), &update))
	assert.Nil(t, update.Status)
	require.NotNil(t, update.AdminNotes)
	assert.Equal(t, "", *update.AdminNotes)

	update = ComplaintUpdate{}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"resolved"}`), &update))
	require.NotNil(t, update.Status)
	assert.Equal(t, StatusResolved, *update.Status)
	assert.Nil(t, update.AdminNotes)
	assert.False(t, update.NotesChanged())
}

func TestComplaintUpdate_DecodeNullNotes(t *testing.T) {
	var update ComplaintUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"status":"pending","admin_notes":null}`), &update))

	require.NotNil(t, update.Status)
	assert.Equal(t, StatusPending, *update.Status)
	assert.Nil(t, update.AdminNotes)
	assert.True(t, update.AdminNotesSet)
	assert.True(t, update.NotesChanged())
	assert.Equal(t, sql.NullString{}, update.NotesValue())
}

func TestComplaintUpdate_DecodeRejectsNonStringNotes(t *testing.T) {
	var update ComplaintUpdate
	assert.Error(t, json.Unmarshal([]byte(`{"admin_notes":42}`), &update))
}

func TestComplaintUpdate_NotesValue(t *testing.T) {
	notes := "Technician booked"
	update := ComplaintUpdate{AdminNotes: &notes}
	assert.True(t, update.NotesChanged())
	assert.Equal(t, sql.NullString{String: notes, Valid: true}, update.NotesValue())

	assert.False(t, (&ComplaintUpdate{}).NotesChanged())
}

func TestAdminStats_JSONKeys(t *testing.T) {
	data, err := json.Marshal(AdminStats{Total: 6, Pending: 3, InProgress: 2, Resolved: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":6,"pending":3,"inProgress":2,"resolved":1}`, string(data))
}
