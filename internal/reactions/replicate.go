// Package reactions replays the reaction set of a source message onto
// its backup copy. Identity scarcity and foreign emoji make this lossy;
// everything that cannot be replayed faithfully is folded into a
// footnote appended to the backup message instead of surfacing errors.
package reactions

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zenercurrent/discord-live-backup/internal/identity"
	"github.com/zenercurrent/discord-live-backup/internal/platform"
	"github.com/zenercurrent/discord-live-backup/internal/types"
)

// PlaceholderEmojiName is the guild emoji substituted when an identity
// cannot render the original emoji.
const PlaceholderEmojiName = "unknown_emoji"

const footnoteHeader = "**Unknown Reactions**"

// Replicator clones reactions across the identity swarm.
type Replicator struct {
	router      *identity.Router
	placeholder types.Emoji
	log         *zap.Logger
}

// New builds a Replicator. placeholder must already exist in the backup
// guild (the orchestrator finds or creates it at startup).
func New(router *identity.Router, placeholder types.Emoji, log *zap.Logger) *Replicator {
	return &Replicator{router: router, placeholder: placeholder, log: log}
}

// tally collects per-emoji fallback events for the footnote.
type tally struct {
	mentions []string // dedicated identities that fell back to the placeholder
	anon     int      // default-identity occurrences, at most one per emoji
}

func (t *tally) empty() bool {
	return t.anon == 0 && len(t.mentions) == 0
}

// Replicate replays src's reactions onto the already-sent backup
// message, then appends the footnote if any fallback happened. Users
// and reactions are walked sequentially; there is no fan-out. Platform
// rejections are absorbed, never returned.
func (r *Replicator) Replicate(ctx context.Context, src types.Message, srcAPI platform.API, sender *identity.Identity, backup types.Message) error {
	if len(src.Reactions) == 0 {
		return nil
	}

	entries := make(map[string]*tally)
	var order []string
	// acted dedupes per (emoji, identity): one react and one tally
	// entry no matter how many source users route to that identity.
	acted := make(map[string]map[string]bool)

	for _, reaction := range src.Reactions {
		key := reaction.Emoji.APIName()
		if acted[key] == nil {
			acted[key] = make(map[string]bool)
		}

		users, err := srcAPI.ReactionUsers(ctx, src.ChannelID, src.ID, reaction.Emoji)
		if err != nil {
			r.log.Warn("list reaction users failed",
				zap.String("message", src.ID),
				zap.String("emoji", key),
				zap.Error(err))
			continue
		}

		for _, user := range users {
			id := r.router.Route(user.ID)
			if acted[key][id.UserID] {
				continue
			}

			err := id.React(ctx, backup.ChannelID, backup.ID, reaction.Emoji)
			switch {
			case err == nil:
				acted[key][id.UserID] = true
				if id.IsDefault {
					order, entries = record(order, entries, key)
					entries[key].anon++
				}
			case platform.IsUnknownEmoji(err) || platform.IsPermissionDenied(err):
				if perr := id.React(ctx, backup.ChannelID, backup.ID, r.placeholder); perr != nil {
					r.log.Warn("placeholder react failed",
						zap.String("identity", id.UserID),
						zap.Error(perr))
				}
				acted[key][id.UserID] = true
				order, entries = record(order, entries, key)
				if id.IsDefault {
					entries[key].anon++
				} else {
					entries[key].mentions = append(entries[key].mentions, id.Mention())
				}
			default:
				r.log.Warn("react failed",
					zap.String("identity", id.UserID),
					zap.String("emoji", key),
					zap.Error(err))
			}
		}
	}

	footnote := buildFootnote(src.Reactions, order, entries)
	if footnote == "" {
		return nil
	}
	if err := sender.EditSent(ctx, backup.ChannelID, backup.ID, backup.Content+footnote); err != nil {
		r.log.Warn("footnote edit failed", zap.String("message", backup.ID), zap.Error(err))
	}
	return nil
}

func record(order []string, entries map[string]*tally, key string) ([]string, map[string]*tally) {
	if _, ok := entries[key]; !ok {
		entries[key] = &tally{}
		order = append(order, key)
	}
	return order, entries
}

// buildFootnote renders the fallback tallies. Emoji with zero fallback
// events produce no line; no events at all produce no footnote.
func buildFootnote(reactions []types.Reaction, order []string, entries map[string]*tally) string {
	byKey := make(map[string]types.Emoji, len(reactions))
	for _, reaction := range reactions {
		byKey[reaction.Emoji.APIName()] = reaction.Emoji
	}

	var lines []string
	for _, key := range order {
		t := entries[key]
		if t.empty() {
			continue
		}
		parts := append([]string{displayEmoji(byKey[key]) + " :"}, t.mentions...)
		if t.anon > 0 {
			parts = append(parts, fmt.Sprintf("+%d unknown", t.anon))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n\n" + footnoteHeader + "\n" + strings.Join(lines, "\n")
}

// displayEmoji renders the original emoji for the footnote. Custom
// emoji foreign to the backup guild cannot render inline, so they are
// shown as :name: text.
func displayEmoji(e types.Emoji) string {
	if e.Custom() {
		return ":" + e.Name + ":"
	}
	return e.Name
}
