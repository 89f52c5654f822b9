package status

import (
	"context"
	"fmt"
	"strings"
	"time"

	botDomain "github.com/AzielCF/az-wabot/botengine/domain"
	pkgError "github.com/AzielCF/az-wabot/pkg/error"
	"github.com/AzielCF/az-wabot/pkg/timeutils"
	schedDomain "github.com/AzielCF/az-wabot/schedule/domain"
)

const scheduleUsage = "<YYYY-MM-DD> <HH:MM> [caption/text]"

// ParseScheduleRequest turns the command arguments and the quoted (or
// attached) content into a schedule candidate. Times are read in loc.
//
// The text of a text status is the argument text when present, otherwise the
// quoted text. The caption of a media status follows the same rule.
func ParseScheduleRequest(ctx context.Context, rawArgs string, content *botDomain.Content, loc *time.Location) (schedDomain.Candidate, error) {
	at, rest, err := parseWhen(rawArgs, loc)
	if err != nil {
		return schedDomain.Candidate{}, err
	}

	c := schedDomain.Candidate{ScheduledAt: at}

	if content == nil {
		if rest == "" {
			return schedDomain.Candidate{}, pkgError.ValidationError("reply to an image, video or text message, or write the text after the time")
		}
		c.Kind = schedDomain.KindText
		c.Text = rest
		return c, nil
	}

	switch content.Kind {
	case botDomain.ContentText:
		c.Kind = schedDomain.KindText
		c.Text = firstNonEmpty(rest, content.Text)
		if c.Text == "" {
			return schedDomain.Candidate{}, pkgError.ValidationError("the quoted message has no text")
		}
	case botDomain.ContentImage, botDomain.ContentVideo:
		if content.Download == nil {
			return schedDomain.Candidate{}, pkgError.ValidationError("the quoted media is no longer available")
		}
		data, err := content.Download(ctx)
		if err != nil {
			return schedDomain.Candidate{}, fmt.Errorf("failed to download quoted %s: %w", content.Kind, err)
		}
		c.Kind = schedDomain.KindImage
		if content.Kind == botDomain.ContentVideo {
			c.Kind = schedDomain.KindVideo
		}
		c.Caption = firstNonEmpty(rest, content.Text)
		c.Media = &schedDomain.MediaUpload{Data: data, MimeType: content.MimeType}
	default:
		return schedDomain.Candidate{}, pkgError.ValidationError(fmt.Sprintf("%s messages cannot be posted as status, use an image, video or text", content.Kind))
	}

	return c, nil
}

// parseWhen reads the date and time at the start of rawArgs and returns the
// remaining text with its original line breaks.
func parseWhen(rawArgs string, loc *time.Location) (time.Time, string, error) {
	fields, rest := cutFields(rawArgs, 2)
	if len(fields) < 2 {
		return time.Time{}, "", pkgError.ValidationError("missing date or time, usage: " + scheduleUsage)
	}
	clock := fields[1]

	// "3:04 PM" spans two fields.
	if next, after := cutFields(rest, 1); len(next) == 1 {
		if meridiem := strings.ToUpper(next[0]); meridiem == "AM" || meridiem == "PM" {
			clock += " " + meridiem
			rest = after
		}
	}

	at, err := timeutils.ParseDateTime(fields[0], clock, loc)
	if err != nil {
		return time.Time{}, "", pkgError.ValidationError(err.Error())
	}
	return at, strings.TrimSpace(rest), nil
}

// cutFields removes the first n whitespace-separated fields from s.
func cutFields(s string, n int) ([]string, string) {
	var fields []string
	rest := s
	for len(fields) < n {
		rest = strings.TrimLeft(rest, " \t\r\n")
		if rest == "" {
			break
		}
		end := strings.IndexAny(rest, " \t\r\n")
		if end < 0 {
			fields = append(fields, rest)
			rest = ""
			break
		}
		fields = append(fields, rest[:end])
		rest = rest[end:]
	}
	return fields, rest
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
