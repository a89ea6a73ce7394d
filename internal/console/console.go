// Package console interprets operator commands posted in one
// designated text channel. Failures are posted back to the channel
// before being returned, so the operator always sees them.
package console

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zenercurrent/discord-live-backup/internal/types"
)

// DefaultConfirmTimeout bounds the manual-import confirmation wait.
const DefaultConfirmTimeout = 60 * time.Second

// CommandError is an operator-command failure. Its message is posted
// to the console channel before the error is returned.
type CommandError struct {
	Msg string
	Err error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Ops is the orchestrator surface the interpreter dispatches into.
type Ops interface {
	// FindMessage resolves a message id against every monitored source
	// channel, in configuration order, until found.
	FindMessage(ctx context.Context, messageID string) (types.Message, types.Channel, error)
	// SyncProfiles copies each mapped source user's avatar, username,
	// and nickname onto their proxy identity.
	SyncProfiles(ctx context.Context) error
	// SyncRoles mirrors missing source roles into the backup guild and
	// recolours the dedicated identities.
	SyncRoles(ctx context.Context) error
	// Import replays source history strictly after afterID, oldest
	// first, and returns the count replicated.
	Import(ctx context.Context, source types.Channel, afterID string) (int, error)
}

// Interpreter is the console state machine. It holds no state across
// turns except a pending confirmation.
type Interpreter struct {
	channelID      string
	ops            Ops
	reply          func(ctx context.Context, text string) error
	confirmTimeout time.Duration
	log            *zap.Logger

	mu      sync.Mutex
	pending chan string
}

// New builds an interpreter for the designated console channel. reply
// posts a message back into that channel.
func New(channelID string, ops Ops, reply func(ctx context.Context, text string) error, log *zap.Logger) *Interpreter {
	return &Interpreter{
		channelID:      channelID,
		ops:            ops,
		reply:          reply,
		confirmTimeout: DefaultConfirmTimeout,
		log:            log,
	}
}

// HandleMessage processes one console turn. Unrecognized content is
// ignored; it is not an error. A pending confirmation consumes the
// turn whole.
func (i *Interpreter) HandleMessage(ctx context.Context, msg types.Message) error {
	if msg.ChannelID != i.channelID {
		return nil
	}

	i.mu.Lock()
	if i.pending != nil {
		ch := i.pending
		i.pending = nil
		i.mu.Unlock()
		select {
		case ch <- msg.Content:
		default:
		}
		return nil
	}
	i.mu.Unlock()

	content := strings.TrimSpace(msg.Content)
	switch {
	case content == "sync profiles":
		if err := i.ops.SyncProfiles(ctx); err != nil {
			return i.fail(ctx, "Profile sync failed", err)
		}
		i.post(ctx, "Profile sync complete.")
		return nil
	case content == "sync roles":
		if err := i.ops.SyncRoles(ctx); err != nil {
			return i.fail(ctx, "Role sync failed", err)
		}
		i.post(ctx, "Role sync complete.")
		return nil
	case strings.HasPrefix(content, "get message "):
		return i.getMessage(ctx, strings.TrimPrefix(content, "get message "))
	case strings.HasPrefix(content, "manual import "):
		return i.manualImport(ctx, strings.TrimPrefix(content, "manual import "))
	default:
		return nil
	}
}

// getMessage echoes a source message's content, embeds, and
// attachments to the console. The id is validated before any lookup.
func (i *Interpreter) getMessage(ctx context.Context, arg string) error {
	id := strings.TrimSpace(arg)
	if err := types.ValidateSnowflake(id); err != nil {
		return i.fail(ctx, fmt.Sprintf("Invalid message id %q: must be all digits", id), nil)
	}

	msg, ch, err := i.ops.FindMessage(ctx, id)
	if err != nil {
		return i.fail(ctx, fmt.Sprintf("Message %s not found in any monitored channel", id), err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Message %s in #%s by %s (%s):\n", msg.ID, ch.Name, msg.Author.Tag(), msg.Timestamp.Format(time.RFC1123))
	sb.WriteString(msg.Content)
	if len(msg.Embeds) > 0 {
		fmt.Fprintf(&sb, "\nEmbeds: %d", len(msg.Embeds))
	}
	if len(msg.Attachments) > 0 {
		sb.WriteString("\nAttachments:")
		for _, a := range msg.Attachments {
			fmt.Fprintf(&sb, "\n- %s: %s", a.Filename, a.URL)
		}
	}
	i.post(ctx, sb.String())
	return nil
}

// manualImport resolves the starting message, then arms a bounded
// confirmation wait. The wait and the import run off the gateway loop
// so the confirming message can still be delivered.
func (i *Interpreter) manualImport(ctx context.Context, arg string) error {
	id := strings.TrimSpace(arg)
	if err := types.ValidateSnowflake(id); err != nil {
		return i.fail(ctx, fmt.Sprintf("Invalid message id %q: must be all digits", id), nil)
	}

	msg, ch, err := i.ops.FindMessage(ctx, id)
	if err != nil {
		return i.fail(ctx, fmt.Sprintf("Message %s not found in any monitored channel", id), err)
	}

	i.post(ctx, fmt.Sprintf(
		"Found message %s in #%s by %s. Importing everything after it, oldest first. Reply \"yes\" within %d seconds to confirm.",
		msg.ID, ch.Name, msg.Author.Tag(), int(i.confirmTimeout.Seconds())))

	confirm := make(chan string, 1)
	i.mu.Lock()
	i.pending = confirm
	i.mu.Unlock()

	go i.awaitConfirmation(ctx, confirm, ch, msg.ID)
	return nil
}

func (i *Interpreter) awaitConfirmation(ctx context.Context, confirm <-chan string, source types.Channel, afterID string) {
	var answer string
	select {
	case answer = <-confirm:
	case <-time.After(i.confirmTimeout):
		i.disarm()
		i.post(ctx, "Confirmation timed out. Import cancelled.")
		return
	case <-ctx.Done():
		i.disarm()
		return
	}

	if strings.TrimSpace(answer) != "yes" {
		i.post(ctx, "Import cancelled.")
		return
	}

	count, err := i.ops.Import(ctx, source, afterID)
	if err != nil {
		i.post(ctx, fmt.Sprintf("Import halted after %d messages: %s", count, err))
		i.log.Error("manual import failed", zap.String("channel", source.Name), zap.Error(err))
		return
	}
	i.post(ctx, fmt.Sprintf("Import complete: %d messages replicated from #%s.", count, source.Name))
}

func (i *Interpreter) disarm() {
	i.mu.Lock()
	i.pending = nil
	i.mu.Unlock()
}

// fail reports a command failure to the console channel, logs it, and
// returns it as a typed error.
func (i *Interpreter) fail(ctx context.Context, msg string, cause error) error {
	err := &CommandError{Msg: msg, Err: cause}
	i.log.Warn("console command failed", zap.String("msg", msg), zap.Error(cause))
	i.post(ctx, msg)
	return err
}

func (i *Interpreter) post(ctx context.Context, text string) {
	if err := i.reply(ctx, text); err != nil {
		i.log.Warn("console reply failed", zap.Error(err))
	}
}
