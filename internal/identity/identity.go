// Package identity models the swarm's proxy accounts: one network
// credential per covered source user, plus a default account that acts
// for everyone without a dedicated proxy.
package identity

import (
	"context"
	"fmt"

	"github.com/zenercurrent/discord-live-backup/internal/platform"
	"github.com/zenercurrent/discord-live-backup/internal/types"
)

// DefaultKey is the roster key of the default (master) identity.
const DefaultKey = "default"

// Identity is one outbound account in the backup guild. The channel and
// role directories are built once by Prime and treated as immutable;
// RefreshChannels is the only sanctioned re-scan.
type Identity struct {
	UserID    string // source user this identity acts for; DefaultKey for the master
	IsDefault bool

	api     platform.API
	guildID string
	selfID  string

	channelsByName map[string]types.Channel
	rolesByName    map[string]types.Role
}

// New wires an identity to an already-authenticated API session.
func New(userID string, api platform.API, backupGuildID string) *Identity {
	return &Identity{
		UserID:    userID,
		IsDefault: userID == DefaultKey,
		api:       api,
		guildID:   backupGuildID,
	}
}

// NewFromToken builds the API client from a bot token. The token is not
// retained; the credential lives only inside the HTTP client.
func NewFromToken(userID, token, backupGuildID string) *Identity {
	return New(userID, platform.NewClient(token), backupGuildID)
}

// Prime resolves the identity's own account and snapshots the backup
// guild's channel and role directories.
func (id *Identity) Prime(ctx context.Context) error {
	me, err := id.api.Me(ctx)
	if err != nil {
		return fmt.Errorf("identity %s: resolve self: %w", id.UserID, err)
	}
	id.selfID = me.ID

	if err := id.RefreshChannels(ctx); err != nil {
		return err
	}
	return id.RefreshRoles(ctx)
}

// RefreshChannels re-scans the backup guild's channel directory. Called
// at startup and after the orchestrator creates a missing channel.
func (id *Identity) RefreshChannels(ctx context.Context) error {
	channels, err := id.api.GuildChannels(ctx, id.guildID)
	if err != nil {
		return fmt.Errorf("identity %s: list channels: %w", id.UserID, err)
	}
	byName := make(map[string]types.Channel, len(channels))
	for _, ch := range channels {
		if ch.Type != types.ChannelTypeText {
			continue
		}
		byName[ch.Name] = ch
	}
	id.channelsByName = byName
	return nil
}

// RefreshRoles re-scans the backup guild's role directory. Used after
// role sync creates roles the startup snapshot predates.
func (id *Identity) RefreshRoles(ctx context.Context) error {
	roles, err := id.api.GuildRoles(ctx, id.guildID)
	if err != nil {
		return fmt.Errorf("identity %s: list roles: %w", id.UserID, err)
	}
	byName := make(map[string]types.Role, len(roles))
	for _, r := range roles {
		byName[r.Name] = r
	}
	id.rolesByName = byName
	return nil
}

// SelfID returns the identity's own account id in the backup guild.
func (id *Identity) SelfID() string {
	return id.selfID
}

// Mention returns the inline mention token for the identity's account.
func (id *Identity) Mention() string {
	return "<@" + id.selfID + ">"
}

// API exposes the identity's platform session for operations outside
// the send/react path (profile sync, thread maintenance).
func (id *Identity) API() platform.API {
	return id.api
}

// GuildID returns the backup guild this identity posts into.
func (id *Identity) GuildID() string {
	return id.guildID
}

// Channel looks up a backup channel by exact name.
func (id *Identity) Channel(name string) (types.Channel, bool) {
	ch, ok := id.channelsByName[name]
	return ch, ok
}

// Role looks up a backup role by exact name.
func (id *Identity) Role(name string) (types.Role, bool) {
	r, ok := id.rolesByName[name]
	return r, ok
}

// Send posts into the same-named backup channel. A directory miss gets
// one explicit re-scan before failing; channel creation is the
// orchestrator's job, not the identity's.
func (id *Identity) Send(ctx context.Context, channelName string, req platform.SendMessageRequest) (types.Message, error) {
	ch, ok := id.channelsByName[channelName]
	if !ok {
		if err := id.RefreshChannels(ctx); err != nil {
			return types.Message{}, err
		}
		if ch, ok = id.channelsByName[channelName]; !ok {
			return types.Message{}, fmt.Errorf("identity %s: no backup channel named %q", id.UserID, channelName)
		}
	}
	return id.api.SendMessage(ctx, ch.ID, req)
}

// React applies an emoji to a backup message as this identity.
func (id *Identity) React(ctx context.Context, channelID, messageID string, emoji types.Emoji) error {
	return id.api.AddReaction(ctx, channelID, messageID, emoji)
}

// EditSent rewrites the content of a message this identity sent.
func (id *Identity) EditSent(ctx context.Context, channelID, messageID, content string) error {
	_, err := id.api.EditMessage(ctx, channelID, messageID, content)
	return err
}
