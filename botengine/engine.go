package botengine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/AzielCF/az-wabot/botengine/domain"
	pkgError "github.com/AzielCF/az-wabot/pkg/error"
	"github.com/sirupsen/logrus"
)

// Engine holds the registered chat commands and dispatches incoming messages
// to them.
type Engine struct {
	prefix string
	owners map[string]struct{}

	mu        sync.RWMutex
	commands  map[string]*domain.Command
	aliases   map[string]string
	transport domain.Transport
}

func NewEngine(prefix string, owners []string) *Engine {
	e := &Engine{
		prefix:   prefix,
		owners:   make(map[string]struct{}),
		commands: make(map[string]*domain.Command),
		aliases:  make(map[string]string),
	}
	for _, o := range owners {
		if user := normalizeUser(o); user != "" {
			e.owners[user] = struct{}{}
		}
	}
	return e
}

func (e *Engine) Prefix() string {
	return e.prefix
}

// RegisterCommand adds a command. Names and aliases are case-insensitive and
// must be unique.
func (e *Engine) RegisterCommand(cmd *domain.Command) error {
	if cmd == nil || cmd.Handler == nil {
		return fmt.Errorf("command must have a handler")
	}
	name := strings.ToLower(strings.TrimSpace(cmd.Name))
	if name == "" {
		return fmt.Errorf("command must have a name")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.taken(name) {
		return fmt.Errorf("command %q already registered", name)
	}
	for _, a := range cmd.Aliases {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" || a == name || e.taken(a) {
			return fmt.Errorf("alias %q of %q already registered", a, name)
		}
	}

	cmd.Name = name
	e.commands[name] = cmd
	for _, a := range cmd.Aliases {
		e.aliases[strings.ToLower(strings.TrimSpace(a))] = name
	}
	logrus.Debugf("[BOT] Registered command %s%s", e.prefix, name)
	return nil
}

// MustRegister panics on registration errors. Used for built-in plugins.
func (e *Engine) MustRegister(cmds ...*domain.Command) {
	for _, c := range cmds {
		if err := e.RegisterCommand(c); err != nil {
			panic(err)
		}
	}
}

func (e *Engine) taken(name string) bool {
	if _, ok := e.commands[name]; ok {
		return true
	}
	_, ok := e.aliases[name]
	return ok
}

// Lookup finds a command by name or alias.
func (e *Engine) Lookup(name string) (*domain.Command, bool) {
	name = strings.ToLower(name)

	e.mu.RLock()
	defer e.mu.RUnlock()

	if cmd, ok := e.commands[name]; ok {
		return cmd, true
	}
	if target, ok := e.aliases[name]; ok {
		return e.commands[target], true
	}
	return nil, false
}

// Commands returns every command sorted by category and name.
func (e *Engine) Commands() []*domain.Command {
	e.mu.RLock()
	out := make([]*domain.Command, 0, len(e.commands))
	for _, c := range e.commands {
		out = append(out, c)
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (e *Engine) RegisterTransport(t domain.Transport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transport = t
}

// IsOwner compares the user part of a JID with the configured owners. With no
// owners configured everybody is treated as owner.
func (e *Engine) IsOwner(senderID string) bool {
	if len(e.owners) == 0 {
		return true
	}
	_, ok := e.owners[normalizeUser(senderID)]
	return ok
}

// Parse splits "<prefix>name args..." into the command name and its arguments.
func (e *Engine) Parse(text string) (name string, rawArgs string, ok bool) {
	text = strings.TrimSpace(text)
	if e.prefix == "" || !strings.HasPrefix(text, e.prefix) {
		return "", "", false
	}
	body := strings.TrimSpace(strings.TrimPrefix(text, e.prefix))
	if body == "" {
		return "", "", false
	}

	if idx := strings.IndexAny(body, " \t\n"); idx >= 0 {
		return strings.ToLower(body[:idx]), strings.TrimSpace(body[idx+1:]), true
	}
	return strings.ToLower(body), "", true
}

// Process runs the command contained in msg, if any. It reports whether the
// message was a known command. User-facing errors are answered in the chat.
func (e *Engine) Process(ctx context.Context, msg domain.Message) (handled bool, err error) {
	name, rawArgs, ok := e.Parse(msg.Text)
	if !ok {
		return false, nil
	}
	cmd, ok := e.Lookup(name)
	if !ok {
		return false, nil
	}

	e.mu.RLock()
	transport := e.transport
	e.mu.RUnlock()

	req := &domain.Request{
		Message:   msg,
		Command:   cmd,
		Prefix:    e.prefix,
		Args:      strings.Fields(rawArgs),
		RawArgs:   rawArgs,
		IsOwner:   e.IsOwner(msg.SenderID),
		Transport: transport,
	}

	if cmd.OwnerOnly && !req.IsOwner {
		logrus.Infof("[BOT] %s%s from %s ignored (not an owner)", e.prefix, cmd.Name, msg.SenderID)
		return true, req.Reply(ctx, "⛔ This command is only available to the bot owner.")
	}

	logrus.Infof("[BOT] %s%s from %s in %s", e.prefix, cmd.Name, msg.SenderID, msg.ChatID)

	if err := e.run(ctx, cmd, req); err != nil {
		var generic pkgError.GenericError
		if errors.As(err, &generic) {
			return true, req.Reply(ctx, "❌ "+generic.Error())
		}
		logrus.WithError(err).Errorf("[BOT] Command %s failed", cmd.Name)
		_ = req.Reply(ctx, "❌ Something went wrong while running "+e.prefix+cmd.Name+".")
		return true, err
	}
	return true, nil
}

func (e *Engine) run(ctx context.Context, cmd *domain.Command, req *domain.Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command %s panicked: %v", cmd.Name, r)
		}
	}()
	return cmd.Handler(ctx, req)
}

// normalizeUser reduces "628111:12@s.whatsapp.net" or "+628111" to "628111".
func normalizeUser(jid string) string {
	jid = strings.TrimSpace(jid)
	if idx := strings.Index(jid, "@"); idx >= 0 {
		jid = jid[:idx]
	}
	if idx := strings.Index(jid, ":"); idx >= 0 {
		jid = jid[:idx]
	}
	return strings.TrimPrefix(jid, "+")
}
