package views

import "time"

const (
	dateLayout     = "Jan 2, 2006"
	dateTimeLayout = "Jan 2, 2006, 03:04 PM"
)

// FormatTimestamp renders the "Submitted" and "Last Updated" dates of the tracking page
func FormatTimestamp(t time.Time, loc *time.Location) string {
	return inLocation(t, loc).Format(dateLayout)
}

// FormatDateTime renders a dashboard timestamp with minutes
func FormatDateTime(t time.Time, loc *time.Location) string {
	return inLocation(t, loc).Format(dateTimeLayout)
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc)
}
