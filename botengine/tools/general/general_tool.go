package general

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AzielCF/az-wabot/botengine/domain"
	"github.com/dustin/go-humanize"
)

// CommandLister is the part of the engine the help command reads.
type CommandLister interface {
	Commands() []*domain.Command
	Lookup(name string) (*domain.Command, bool)
}

type GeneralTools struct {
	commands  CommandLister
	version   string
	startedAt time.Time
	now       func() time.Time
}

func NewGeneralTools(commands CommandLister, version string) *GeneralTools {
	return &GeneralTools{commands: commands, version: version, startedAt: time.Now(), now: time.Now}
}

func (t *GeneralTools) Commands() []*domain.Command {
	return []*domain.Command{t.HelpCommand(), t.PingCommand()}
}

func (t *GeneralTools) HelpCommand() *domain.Command {
	return &domain.Command{
		Name:        "help",
		Aliases:     []string{"menu"},
		Category:    "general",
		Description: "Show the available commands, or the details of one.",
		Usage:       "[command]",
		Handler: func(ctx context.Context, req *domain.Request) error {
			if len(req.Args) > 0 {
				name := strings.TrimPrefix(strings.ToLower(req.Args[0]), req.Prefix)
				cmd, ok := t.commands.Lookup(name)
				if !ok {
					return req.Reply(ctx, fmt.Sprintf("Unknown command %q. Send %shelp for the list.", name, req.Prefix))
				}
				return req.Reply(ctx, describe(req.Prefix, cmd))
			}
			return req.Reply(ctx, t.menu(req.Prefix, req.IsOwner))
		},
	}
}

func (t *GeneralTools) PingCommand() *domain.Command {
	return &domain.Command{
		Name:        "ping",
		Category:    "general",
		Description: "Check that the bot is alive.",
		Handler: func(ctx context.Context, req *domain.Request) error {
			uptime := strings.TrimSuffix(humanize.RelTime(t.startedAt, t.now(), "", ""), " ")
			reply := fmt.Sprintf("🏓 Pong! Up for %s", uptime)
			if t.version != "" {
				reply += " (" + t.version + ")"
			}
			return req.Reply(ctx, reply)
		},
	}
}

// menu lists commands grouped by category. Owner-only commands are hidden
// from other users.
func (t *GeneralTools) menu(prefix string, isOwner bool) string {
	var sb strings.Builder
	sb.WriteString("📋 *Commands*\n")

	current := ""
	for _, cmd := range t.commands.Commands() {
		if cmd.OwnerOnly && !isOwner {
			continue
		}
		if cmd.Category != current {
			current = cmd.Category
			sb.WriteString("\n*" + strings.ToUpper(current) + "*\n")
		}
		sb.WriteString(fmt.Sprintf("• %s%s", prefix, cmd.Name))
		if cmd.Usage != "" {
			sb.WriteString(" " + cmd.Usage)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func describe(prefix string, cmd *domain.Command) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s%s*", prefix, cmd.Name))
	if cmd.Description != "" {
		sb.WriteString("\n" + cmd.Description)
	}
	sb.WriteString("\nUsage: " + strings.TrimSpace(prefix+cmd.Name+" "+cmd.Usage))
	if len(cmd.Aliases) > 0 {
		sb.WriteString("\nAliases: " + prefix + strings.Join(cmd.Aliases, ", "+prefix))
	}
	if cmd.OwnerOnly {
		sb.WriteString("\nOwner only")
	}
	return sb.String()
}
