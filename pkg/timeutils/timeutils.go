package timeutils

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// DisplayLayout is the layout used when a schedule time is shown to a user.
const DisplayLayout = "Mon 02 Jan 2006 15:04"

var timeFormats = []string{
	"15:04", "15:04:05", "03:04 PM", "03:04 pm", "3:04 PM", "3:04 pm",
}

// ParseDateTime combines a YYYY-MM-DD date and a clock time into an absolute
// time in loc. Both parts are required.
func ParseDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)
	if dateStr == "" || timeStr == "" {
		return time.Time{}, fmt.Errorf("date and time are required (YYYY-MM-DD HH:MM)")
	}
	if loc == nil {
		loc = time.UTC
	}

	dVal, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format %s, use YYYY-MM-DD", dateStr)
	}
	y, m, d := dVal.Date()

	for _, f := range timeFormats {
		parsed, err := time.ParseInLocation(f, timeStr, loc)
		if err == nil {
			h, min, s := parsed.Clock()
			return time.Date(y, m, d, h, min, s, 0, loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid time format %s, use HH:MM", timeStr)
}

// HumanizeUntil renders the distance between now and t, e.g. "5 minutes from now".
func HumanizeUntil(t, now time.Time) string {
	if !t.After(now) {
		return "now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatLocal renders t in loc with DisplayLayout.
func FormatLocal(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayLayout)
}
