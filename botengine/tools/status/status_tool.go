package status

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	botDomain "github.com/AzielCF/az-wabot/botengine/domain"
	pkgError "github.com/AzielCF/az-wabot/pkg/error"
	"github.com/AzielCF/az-wabot/pkg/timeutils"
	"github.com/AzielCF/az-wabot/schedule/application"
	schedDomain "github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/AzielCF/az-wabot/validations"
)

const category = "status"

// StatusTools exposes the status scheduler as chat commands.
type StatusTools struct {
	service      *application.ScheduleService
	historyLimit int
}

func NewStatusTools(service *application.ScheduleService, historyLimit int) *StatusTools {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &StatusTools{service: service, historyLimit: historyLimit}
}

// Commands returns every status command, ready to register.
func (t *StatusTools) Commands() []*botDomain.Command {
	return []*botDomain.Command{
		t.ScheduleCommand(),
		t.ListCommand(),
		t.CancelCommand(),
		t.HistoryCommand(),
	}
}

func (t *StatusTools) ScheduleCommand() *botDomain.Command {
	return &botDomain.Command{
		Name:        "schedulestatus",
		Aliases:     []string{"sst", "statusat"},
		Category:    category,
		Description: "Schedule a status update. Reply to an image, video or text, or write the text after the time.",
		Usage:       scheduleUsage,
		OwnerOnly:   true,
		Handler: func(ctx context.Context, req *botDomain.Request) error {
			content := req.Message.Quoted
			if content == nil && req.Message.Attached.HasMedia() {
				content = req.Message.Attached
			}

			candidate, err := ParseScheduleRequest(ctx, req.RawArgs, content, t.service.Location())
			if err != nil {
				if _, ok := err.(pkgError.ValidationError); ok {
					return pkgError.ValidationError(err.Error() + "\nUsage: " + req.UsageLine())
				}
				return err
			}
			candidate.FromJID = req.Message.ChatID
			candidate.CreatedBy = req.Message.SenderID

			post, err := t.service.Schedule(ctx, candidate)
			if err != nil {
				return err
			}

			return req.Reply(ctx, t.formatScheduled(post))
		},
	}
}

func (t *StatusTools) ListCommand() *botDomain.Command {
	return &botDomain.Command{
		Name:        "liststatus",
		Aliases:     []string{"lst"},
		Category:    category,
		Description: "List pending status updates.",
		OwnerOnly:   true,
		Handler: func(ctx context.Context, req *botDomain.Request) error {
			return req.Reply(ctx, t.formatPending(t.service.List(ctx)))
		},
	}
}

func (t *StatusTools) CancelCommand() *botDomain.Command {
	return &botDomain.Command{
		Name:        "cancelstatus",
		Aliases:     []string{"cst"},
		Category:    category,
		Description: "Cancel a pending status update.",
		Usage:       "<id>",
		OwnerOnly:   true,
		Handler: func(ctx context.Context, req *botDomain.Request) error {
			id := strings.TrimPrefix(strings.TrimSpace(req.RawArgs), "#")
			if err := validations.ValidateScheduleID(ctx, id); err != nil {
				return pkgError.ValidationError("give the id shown by " + req.Prefix + "liststatus\nUsage: " + req.UsageLine())
			}

			post, err := t.service.Cancel(ctx, id)
			if err != nil {
				return err
			}

			return req.Reply(ctx, fmt.Sprintf("🗑️ Scheduled status #%s (%s, %s) cancelled.",
				post.ID, post.Kind(), timeutils.FormatLocal(post.ScheduledAt, t.service.Location())))
		},
	}
}

func (t *StatusTools) HistoryCommand() *botDomain.Command {
	return &botDomain.Command{
		Name:        "statushistory",
		Aliases:     []string{"sth"},
		Category:    category,
		Description: "Show the latest scheduled status activity.",
		Usage:       "[limit]",
		OwnerOnly:   true,
		Handler: func(ctx context.Context, req *botDomain.Request) error {
			limit := t.historyLimit
			if len(req.Args) > 0 {
				n, err := strconv.Atoi(req.Args[0])
				if err != nil || n <= 0 || n > 50 {
					return pkgError.ValidationError("limit must be a number between 1 and 50")
				}
				limit = n
			}

			entries, err := t.service.History(ctx, limit)
			if err != nil {
				return err
			}
			return req.Reply(ctx, t.formatHistory(entries))
		},
	}
}

func (t *StatusTools) formatScheduled(post schedDomain.ScheduledPost) string {
	loc := t.service.Location()
	var sb strings.Builder
	sb.WriteString("✅ *Status scheduled*\n\n")
	sb.WriteString(fmt.Sprintf("🆔 ID: #%s\n", post.ID))
	sb.WriteString(fmt.Sprintf("🗂️ Type: %s\n", post.Kind()))
	sb.WriteString(fmt.Sprintf("🕒 Time: %s (%s)\n", timeutils.FormatLocal(post.ScheduledAt, loc), loc))
	sb.WriteString(fmt.Sprintf("⏳ Posting %s", timeutils.HumanizeUntil(post.ScheduledAt, t.service.Now())))
	return sb.String()
}

func (t *StatusTools) formatPending(posts []schedDomain.ScheduledPost) string {
	if len(posts) == 0 {
		return "📭 No status updates scheduled."
	}

	loc := t.service.Location()
	now := t.service.Now()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Scheduled status updates* (%d)\n", len(posts)))
	for i, p := range posts {
		sb.WriteString(fmt.Sprintf("\n*%d.* #%s · %s · %s (%s)", i+1, p.ID, p.Kind(),
			timeutils.FormatLocal(p.ScheduledAt, loc), timeutils.HumanizeUntil(p.ScheduledAt, now)))
		if preview := truncate(p.Preview(), 60); preview != "" {
			sb.WriteString("\n   ↳ " + preview)
		}
	}
	return sb.String()
}

func (t *StatusTools) formatHistory(entries []schedDomain.HistoryEntry) string {
	if len(entries) == 0 {
		return "📭 No status activity recorded yet."
	}

	loc := t.service.Location()
	var sb strings.Builder
	sb.WriteString("🧾 *Status history*\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("\n%s #%s %s %s · %s", eventIcon(e.Event), e.PostID, e.Kind, e.Event,
			timeutils.FormatLocal(e.OccurredAt, loc)))
		if e.Error != "" {
			sb.WriteString("\n   ↳ " + truncate(e.Error, 80))
		}
	}
	return sb.String()
}

func eventIcon(event schedDomain.HistoryEvent) string {
	switch event {
	case schedDomain.EventScheduled:
		return "🕒"
	case schedDomain.EventSent:
		return "✅"
	case schedDomain.EventFailed:
		return "❌"
	case schedDomain.EventCancelled:
		return "🗑️"
	case schedDomain.EventDropped:
		return "⌛"
	}
	return "•"
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
