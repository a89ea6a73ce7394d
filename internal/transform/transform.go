// Package transform rewrites raw source message text for the backup
// guild. Every step is a pure string transform over explicit lookup
// tables; there is no hidden state and no error path. Text the pipeline
// cannot resolve is left untouched and renders as inert tokens.
package transform

import (
	"regexp"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

var (
	userMentionRe = regexp.MustCompile(`<@!?(\d+)>`)
	roleMentionRe = regexp.MustCompile(`<@&(\d+)>`)
)

// zwsp breaks broadcast tags without changing how they read.
const zwsp = "​"

const timestampFormat = "%m/%d/%Y %I:%M%p"

// Pipeline holds the lookup tables mention rewriting joins against.
// Roster maps source user id to proxy account id. SourceRoles maps
// source role id to role name; BackupRoles maps role name to backup
// role id (names are the join key, ids differ across guilds).
type Pipeline struct {
	Roster      map[string]string
	SourceRoles map[string]string
	BackupRoles map[string]string
	TZOffset    time.Duration
}

// Options controls the per-message annotation steps.
type Options struct {
	// BatchImport enables the timestamp prefix on historical replays.
	BatchImport bool
	// Timestamp is the source message's original send time.
	Timestamp time.Time
	// ViaDefault marks that the default identity is sending because no
	// dedicated proxy exists for the author.
	ViaDefault bool
	// AuthorTag names the original author for the attribution suffix.
	AuthorTag string
}

// Transform applies the rewrite steps in order: user mentions, role
// mentions, broadcast neutering, then the caller-gated annotations.
func (p Pipeline) Transform(raw string, opts Options) string {
	text := p.rewriteUserMentions(raw)
	text = p.rewriteRoleMentions(text)
	text = NeuterBroadcasts(text)

	if opts.BatchImport {
		text = "[" + p.formatTimestamp(opts.Timestamp) + "] " + text
	}
	if opts.ViaDefault && opts.AuthorTag != "" {
		text += "\n*(sent by " + opts.AuthorTag + ")*"
	}
	return text
}

// rewriteUserMentions swaps mentions of rostered source users for
// mentions of their proxy accounts. Unrostered mentions pass through.
func (p Pipeline) rewriteUserMentions(text string) string {
	return userMentionRe.ReplaceAllStringFunc(text, func(tok string) string {
		id := userMentionRe.FindStringSubmatch(tok)[1]
		proxy, ok := p.Roster[id]
		if !ok {
			return tok
		}
		return "<@" + proxy + ">"
	})
}

// rewriteRoleMentions resolves source role id to name to backup role
// id. Either lookup missing leaves the token unmodified.
func (p Pipeline) rewriteRoleMentions(text string) string {
	return roleMentionRe.ReplaceAllStringFunc(text, func(tok string) string {
		id := roleMentionRe.FindStringSubmatch(tok)[1]
		name, ok := p.SourceRoles[id]
		if !ok {
			return tok
		}
		backup, ok := p.BackupRoles[name]
		if !ok {
			return tok
		}
		return "<@&" + backup + ">"
	})
}

// NeuterBroadcasts inserts a zero-width separator into the two
// platform-wide notification tags so they do not fire in the backup
// guild. Already-neutered tags no longer match the literal and are
// left alone, which makes the step idempotent.
func NeuterBroadcasts(text string) string {
	text = strings.ReplaceAll(text, "@everyone", "@"+zwsp+"everyone")
	text = strings.ReplaceAll(text, "@here", "@"+zwsp+"here")
	return text
}

func (p Pipeline) formatTimestamp(t time.Time) string {
	return strftime.Format(timestampFormat, t.UTC().Add(p.TZOffset))
}
