// Package views holds the view models behind the submit form, the tracking
// page and the admin dashboard. Everything here is a pure function of API data.
package views

import "campusvoice/internal/models"

// Option is one entry of a select control
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var categoryOptions = []Option{
	{Value: "infrastructure", Label: "Infrastructure"},
	{Value: "technology", Label: "Technology"},
	{Value: "utilities", Label: "Utilities"},
	{Value: "safety", Label: "Safety & Security"},
	{Value: "sanitation", Label: "Sanitation"},
	{Value: "other", Label: "Other"},
}

var locationOptions = []Option{
	{Value: "main-building", Label: "Main Building"},
	{Value: "library", Label: "Library"},
	{Value: "science-block", Label: "Science Block"},
	{Value: "cafeteria", Label: "Cafeteria"},
	{Value: "sports-complex", Label: "Sports Complex"},
	{Value: "dormitory", Label: "Dormitory"},
	{Value: "parking", Label: "Parking Area"},
	{Value: "outdoor", Label: "Outdoor/Campus Grounds"},
	{Value: "other", Label: "Other"},
}

var statusOptions = []Option{
	{Value: models.StatusPending, Label: "Pending Review"},
	{Value: models.StatusInProgress, Label: "In Progress"},
	{Value: models.StatusResolved, Label: "Resolved"},
}

var statusShortLabels = map[string]string{
	models.StatusPending:    "Pending",
	models.StatusInProgress: "In Progress",
	models.StatusResolved:   "Resolved",
}

var statusDescriptions = map[string]string{
	models.StatusPending:    "Your issue is awaiting review by the administration.",
	models.StatusInProgress: "The administration is actively working on your issue.",
	models.StatusResolved:   "Your issue has been resolved.",
}

var (
	categoryLabels = optionLabels(categoryOptions)
	locationLabels = optionLabels(locationOptions)
	statusLabels   = optionLabels(statusOptions)
)

func optionLabels(options []Option) map[string]string {
	labels := make(map[string]string, len(options))
	for _, o := range options {
		labels[o.Value] = o.Label
	}
	return labels
}

func lookup(labels map[string]string, key string) string {
	if label, ok := labels[key]; ok {
		return label
	}
	return key
}

// CategoryLabel returns the display name of a category, or the key itself when unknown
func CategoryLabel(key string) string { return lookup(categoryLabels, key) }

// LocationLabel returns the display name of a location, or the key itself when unknown
func LocationLabel(key string) string { return lookup(locationLabels, key) }

// StatusLabel returns the long status name shown on the tracking page
func StatusLabel(status string) string { return lookup(statusLabels, status) }

// StatusShortLabel returns the compact status name used on the dashboard
func StatusShortLabel(status string) string { return lookup(statusShortLabels, status) }

// StatusDescription explains a status to the person who filed the complaint
func StatusDescription(status string) string { return statusDescriptions[status] }

// CategoryOptions returns the categories in display order
func CategoryOptions() []Option { return cloneOptions(categoryOptions) }

// LocationOptions returns the locations in display order
func LocationOptions() []Option { return cloneOptions(locationOptions) }

// StatusOptions returns the statuses in workflow order with their long labels
func StatusOptions() []Option { return cloneOptions(statusOptions) }

func cloneOptions(options []Option) []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}
