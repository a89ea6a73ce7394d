// Package platformtest provides an in-memory platform.API for tests.
package platformtest

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/zenercurrent/discord-live-backup/internal/platform"
	"github.com/zenercurrent/discord-live-backup/internal/types"
)

// ReactRecord captures one AddReaction call.
type ReactRecord struct {
	ChannelID string
	MessageID string
	Emoji     types.Emoji
}

// EditRecord captures one EditMessage call.
type EditRecord struct {
	ChannelID string
	MessageID string
	Content   string
}

// RenameRecord captures one RenameThread call.
type RenameRecord struct {
	ThreadID string
	Name     string
}

// Fake is an in-memory platform.API. Zero value is usable; populate
// the exported fields to seed state and inspect the records after.
type Fake struct {
	mu sync.Mutex

	Self     types.User
	Channels []types.Channel
	Roles    []types.Role
	Emojis   []types.Emoji
	Members  map[string]types.Member

	// MessagesByChannel holds each channel's history, oldest first.
	MessagesByChannel map[string][]types.Message
	Threads           map[string]*types.Thread
	Active            []types.Thread

	// ReactionUserList maps message id, then emoji API name, to the
	// users who applied it on the source message.
	ReactionUserList map[string]map[string][]types.User

	// ReactErr, when set, is consulted before recording a reaction.
	ReactErr func(channelID, messageID string, emoji types.Emoji) error

	ImageData []byte

	Sent    []types.Message
	Reacts  []ReactRecord
	Edits   []EditRecord
	Renames []RenameRecord
	Deleted []string

	ProfileEdits []platform.ProfileEdit
	MemberEdits  []platform.MemberEdit

	nextID int
}

var _ platform.API = (*Fake)(nil)

func notFound(msg string) error {
	return &platform.APIError{Status: http.StatusNotFound, Code: 10008, Message: msg}
}

// UnknownEmojiErr builds the rejection the platform returns for an
// emoji the credential cannot render.
func UnknownEmojiErr() error {
	return &platform.APIError{Status: http.StatusBadRequest, Code: 10014, Message: "Unknown Emoji"}
}

func (f *Fake) newID() string {
	f.nextID++
	return fmt.Sprintf("9%08d", f.nextID)
}

func (f *Fake) Me(ctx context.Context) (types.User, error) {
	return f.Self, nil
}

func (f *Fake) GuildChannels(ctx context.Context, guildID string) ([]types.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Channel(nil), f.Channels...), nil
}

func (f *Fake) GuildRoles(ctx context.Context, guildID string) ([]types.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Role(nil), f.Roles...), nil
}

func (f *Fake) GuildEmojis(ctx context.Context, guildID string) ([]types.Emoji, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Emoji(nil), f.Emojis...), nil
}

func (f *Fake) GuildMember(ctx context.Context, guildID, userID string) (types.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	member, ok := f.Members[userID]
	if !ok {
		return types.Member{}, notFound("unknown member " + userID)
	}
	return member, nil
}

func (f *Fake) CreateChannel(ctx context.Context, guildID, name string) (types.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := types.Channel{ID: f.newID(), GuildID: guildID, Name: name, Type: types.ChannelTypeText}
	f.Channels = append(f.Channels, ch)
	return ch, nil
}

func (f *Fake) CreateRole(ctx context.Context, guildID, name string, color int) (types.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	role := types.Role{ID: f.newID(), Name: name, Color: color}
	f.Roles = append(f.Roles, role)
	return role, nil
}

func (f *Fake) CreateEmoji(ctx context.Context, guildID, name string, image []byte) (types.Emoji, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	emoji := types.Emoji{ID: f.newID(), Name: name}
	f.Emojis = append(f.Emojis, emoji)
	return emoji, nil
}

func (f *Fake) SendMessage(ctx context.Context, channelID string, req platform.SendMessageRequest) (types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := types.Message{
		ID:        f.newID(),
		ChannelID: channelID,
		Author:    f.Self,
		Content:   req.Content,
		Embeds:    req.Embeds,
	}
	if f.MessagesByChannel == nil {
		f.MessagesByChannel = make(map[string][]types.Message)
	}
	f.MessagesByChannel[channelID] = append(f.MessagesByChannel[channelID], msg)
	f.Sent = append(f.Sent, msg)
	return msg, nil
}

func (f *Fake) EditMessage(ctx context.Context, channelID, messageID, content string) (types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Edits = append(f.Edits, EditRecord{ChannelID: channelID, MessageID: messageID, Content: content})
	history := f.MessagesByChannel[channelID]
	for i := range history {
		if history[i].ID == messageID {
			history[i].Content = content
			return history[i], nil
		}
	}
	return types.Message{}, notFound("unknown message " + messageID)
}

func (f *Fake) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, messageID)
	history := f.MessagesByChannel[channelID]
	for i := range history {
		if history[i].ID == messageID {
			f.MessagesByChannel[channelID] = append(history[:i:i], history[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *Fake) Message(ctx context.Context, channelID, messageID string) (types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.MessagesByChannel[channelID] {
		if msg.ID == messageID {
			return msg, nil
		}
	}
	return types.Message{}, notFound("unknown message " + messageID)
}

func (f *Fake) MessagesAfter(ctx context.Context, channelID, afterID string, limit int) ([]types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Message
	for _, msg := range f.MessagesByChannel[channelID] {
		if snowflakeLess(afterID, msg.ID) {
			out = append(out, msg)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *Fake) LatestMessage(ctx context.Context, channelID string) (types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	history := f.MessagesByChannel[channelID]
	if len(history) == 0 {
		return types.Message{}, notFound("channel has no messages")
	}
	return history[len(history)-1], nil
}

func (f *Fake) AddReaction(ctx context.Context, channelID, messageID string, emoji types.Emoji) error {
	if f.ReactErr != nil {
		if err := f.ReactErr(channelID, messageID, emoji); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reacts = append(f.Reacts, ReactRecord{ChannelID: channelID, MessageID: messageID, Emoji: emoji})
	return nil
}

func (f *Fake) ReactionUsers(ctx context.Context, channelID, messageID string, emoji types.Emoji) ([]types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ReactionUserList[messageID][emoji.APIName()], nil
}

func (f *Fake) EditProfile(ctx context.Context, edit platform.ProfileEdit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ProfileEdits = append(f.ProfileEdits, edit)
	return nil
}

func (f *Fake) FetchImage(ctx context.Context, url string) ([]byte, error) {
	return f.ImageData, nil
}

func (f *Fake) EditMember(ctx context.Context, guildID, userID string, edit platform.MemberEdit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MemberEdits = append(f.MemberEdits, edit)
	return nil
}

func (f *Fake) EditRole(ctx context.Context, guildID, roleID string, color int) (types.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Roles {
		if f.Roles[i].ID == roleID {
			f.Roles[i].Color = color
			return f.Roles[i], nil
		}
	}
	return types.Role{}, notFound("unknown role " + roleID)
}

func (f *Fake) StartThread(ctx context.Context, channelID, name string) (types.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	thread := types.Thread{ID: f.newID(), ParentID: channelID, Name: name}
	if f.Threads == nil {
		f.Threads = make(map[string]*types.Thread)
	}
	stored := thread
	f.Threads[thread.ID] = &stored
	f.Active = append(f.Active, thread)
	return thread, nil
}

func (f *Fake) Thread(ctx context.Context, threadID string) (types.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	thread, ok := f.Threads[threadID]
	if !ok {
		return types.Thread{}, notFound("unknown thread " + threadID)
	}
	return *thread, nil
}

func (f *Fake) RenameThread(ctx context.Context, threadID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Renames = append(f.Renames, RenameRecord{ThreadID: threadID, Name: name})
	if thread, ok := f.Threads[threadID]; ok {
		thread.Name = name
	}
	return nil
}

func (f *Fake) ActiveThreads(ctx context.Context, guildID string) ([]types.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Thread(nil), f.Active...), nil
}

// SeedMessage appends a message with a caller-chosen id to a channel's
// history. Histories must be seeded oldest first.
func (f *Fake) SeedMessage(msg types.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MessagesByChannel == nil {
		f.MessagesByChannel = make(map[string][]types.Message)
	}
	f.MessagesByChannel[msg.ChannelID] = append(f.MessagesByChannel[msg.ChannelID], msg)
}

func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
