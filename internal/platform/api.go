package platform

import (
	"context"

	"github.com/zenercurrent/discord-live-backup/internal/types"
)

// SendMessageRequest is the payload for sending a channel message.
type SendMessageRequest struct {
	Content string        `json:"content"`
	Embeds  []types.Embed `json:"embeds,omitempty"`
}

// ProfileEdit updates the authenticated account's own profile. Nil
// fields are left untouched.
type ProfileEdit struct {
	Username *string `json:"username,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// MemberEdit updates a guild member. Nil fields are left untouched.
type MemberEdit struct {
	Nick  *string  `json:"nick,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// API is the subset of the platform REST surface the replication core
// consumes. One implementation per credential; tests substitute fakes.
type API interface {
	Me(ctx context.Context) (types.User, error)
	GuildChannels(ctx context.Context, guildID string) ([]types.Channel, error)
	GuildRoles(ctx context.Context, guildID string) ([]types.Role, error)
	GuildEmojis(ctx context.Context, guildID string) ([]types.Emoji, error)
	GuildMember(ctx context.Context, guildID, userID string) (types.Member, error)

	CreateChannel(ctx context.Context, guildID, name string) (types.Channel, error)
	CreateRole(ctx context.Context, guildID, name string, color int) (types.Role, error)
	CreateEmoji(ctx context.Context, guildID, name string, image []byte) (types.Emoji, error)

	SendMessage(ctx context.Context, channelID string, req SendMessageRequest) (types.Message, error)
	EditMessage(ctx context.Context, channelID, messageID, content string) (types.Message, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	Message(ctx context.Context, channelID, messageID string) (types.Message, error)
	MessagesAfter(ctx context.Context, channelID, afterID string, limit int) ([]types.Message, error)
	LatestMessage(ctx context.Context, channelID string) (types.Message, error)

	AddReaction(ctx context.Context, channelID, messageID string, emoji types.Emoji) error
	ReactionUsers(ctx context.Context, channelID, messageID string, emoji types.Emoji) ([]types.User, error)

	EditProfile(ctx context.Context, edit ProfileEdit) error
	FetchImage(ctx context.Context, url string) ([]byte, error)
	EditMember(ctx context.Context, guildID, userID string, edit MemberEdit) error
	EditRole(ctx context.Context, guildID, roleID string, color int) (types.Role, error)

	StartThread(ctx context.Context, channelID, name string) (types.Thread, error)
	Thread(ctx context.Context, threadID string) (types.Thread, error)
	RenameThread(ctx context.Context, threadID, name string) error
	ActiveThreads(ctx context.Context, guildID string) ([]types.Thread, error)
}
