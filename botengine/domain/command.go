package domain

import (
	"context"
	"strings"
)

// CommandHandler runs a command. Returned typed errors are shown to the user.
type CommandHandler func(ctx context.Context, req *Request) error

// Command is a chat command registered in the engine.
type Command struct {
	Name        string
	Aliases     []string
	Category    string
	Description string
	Usage       string // Arguments after the command name
	OwnerOnly   bool
	Handler     CommandHandler
}

// Request is one invocation of a command.
type Request struct {
	Message Message
	Command *Command
	Prefix  string
	Args    []string
	RawArgs string
	IsOwner bool

	Transport Transport
}

// Reply answers in the chat, quoting the command message.
func (r *Request) Reply(ctx context.Context, text string) error {
	if r.Transport == nil {
		return nil
	}
	return r.Transport.SendMessage(ctx, r.Message.ChatID, text, r.Message.ID)
}

// UsageLine renders "<prefix><name> <usage>".
func (r *Request) UsageLine() string {
	if r.Command == nil {
		return ""
	}
	return strings.TrimSpace(r.Prefix + r.Command.Name + " " + r.Command.Usage)
}
