package platform

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenercurrent/discord-live-backup/internal/types"
)

const defaultBaseURL = "https://discord.com/api/v9"

// Client talks to the platform REST API with a single bot credential.
// Rate limiting and retry are the platform layer's concern; the client
// surfaces rejections as *APIError.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a client for one bot token.
func NewClient(token string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// NewClientWithBaseURL constructs a client against a non-default API
// base. Used by tests pointing at a local httptest server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (types.User, error) {
	var user types.User
	err := c.doJSON(ctx, http.MethodGet, "/users/@me", nil, nil, &user)
	return user, err
}

// GuildChannels lists the guild's channels.
func (c *Client) GuildChannels(ctx context.Context, guildID string) ([]types.Channel, error) {
	var channels []types.Channel
	err := c.doJSON(ctx, http.MethodGet, "/guilds/"+guildID+"/channels", nil, nil, &channels)
	return channels, err
}

// GuildRoles lists the guild's roles.
func (c *Client) GuildRoles(ctx context.Context, guildID string) ([]types.Role, error) {
	var roles []types.Role
	err := c.doJSON(ctx, http.MethodGet, "/guilds/"+guildID+"/roles", nil, nil, &roles)
	return roles, err
}

// GuildEmojis lists the guild's custom emoji.
func (c *Client) GuildEmojis(ctx context.Context, guildID string) ([]types.Emoji, error) {
	var emojis []types.Emoji
	err := c.doJSON(ctx, http.MethodGet, "/guilds/"+guildID+"/emojis", nil, nil, &emojis)
	return emojis, err
}

// GuildMember fetches one member of a guild.
func (c *Client) GuildMember(ctx context.Context, guildID, userID string) (types.Member, error) {
	var member types.Member
	err := c.doJSON(ctx, http.MethodGet, "/guilds/"+guildID+"/members/"+userID, nil, nil, &member)
	return member, err
}

// CreateChannel creates a text channel in the guild.
func (c *Client) CreateChannel(ctx context.Context, guildID, name string) (types.Channel, error) {
	req := map[string]any{"name": name, "type": types.ChannelTypeText}
	var channel types.Channel
	err := c.doJSON(ctx, http.MethodPost, "/guilds/"+guildID+"/channels", nil, req, &channel)
	return channel, err
}

// CreateRole creates a guild role with the given name and colour.
func (c *Client) CreateRole(ctx context.Context, guildID, name string, color int) (types.Role, error) {
	req := map[string]any{"name": name, "color": color}
	var role types.Role
	err := c.doJSON(ctx, http.MethodPost, "/guilds/"+guildID+"/roles", nil, req, &role)
	return role, err
}

// CreateEmoji uploads a custom emoji to the guild.
func (c *Client) CreateEmoji(ctx context.Context, guildID, name string, image []byte) (types.Emoji, error) {
	req := map[string]any{
		"name":  name,
		"image": "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
	}
	var emoji types.Emoji
	err := c.doJSON(ctx, http.MethodPost, "/guilds/"+guildID+"/emojis", nil, req, &emoji)
	return emoji, err
}

// SendMessage posts a message to a channel.
func (c *Client) SendMessage(ctx context.Context, channelID string, req SendMessageRequest) (types.Message, error) {
	var msg types.Message
	err := c.doJSON(ctx, http.MethodPost, "/channels/"+channelID+"/messages", nil, req, &msg)
	return msg, err
}

// EditMessage replaces the content of a message the credential sent.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID, content string) (types.Message, error) {
	req := map[string]any{"content": content}
	var msg types.Message
	err := c.doJSON(ctx, http.MethodPatch, "/channels/"+channelID+"/messages/"+messageID, nil, req, &msg)
	return msg, err
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/channels/"+channelID+"/messages/"+messageID, nil, nil, nil)
}

// Message fetches a single message by id.
func (c *Client) Message(ctx context.Context, channelID, messageID string) (types.Message, error) {
	var msg types.Message
	err := c.doJSON(ctx, http.MethodGet, "/channels/"+channelID+"/messages/"+messageID, nil, nil, &msg)
	return msg, err
}

// MessagesAfter fetches up to limit messages strictly after afterID,
// oldest-first. The platform returns newest-first pages for this
// endpoint's siblings but oldest-first when paging with "after".
func (c *Client) MessagesAfter(ctx context.Context, channelID, afterID string, limit int) ([]types.Message, error) {
	query := url.Values{}
	query.Set("after", afterID)
	query.Set("limit", strconv.Itoa(limit))
	var msgs []types.Message
	err := c.doJSON(ctx, http.MethodGet, "/channels/"+channelID+"/messages", query, nil, &msgs)
	return msgs, err
}

// LatestMessage fetches the most recent message in the channel.
func (c *Client) LatestMessage(ctx context.Context, channelID string) (types.Message, error) {
	query := url.Values{}
	query.Set("limit", "1")
	var msgs []types.Message
	if err := c.doJSON(ctx, http.MethodGet, "/channels/"+channelID+"/messages", query, nil, &msgs); err != nil {
		return types.Message{}, err
	}
	if len(msgs) == 0 {
		return types.Message{}, &APIError{Status: http.StatusNotFound, Code: codeUnknownMessage, Message: "channel has no messages"}
	}
	return msgs[0], nil
}

// AddReaction applies an emoji reaction as the authenticated account.
func (c *Client) AddReaction(ctx context.Context, channelID, messageID string, emoji types.Emoji) error {
	path := fmt.Sprintf("/channels/%s/messages/%s/reactions/%s/@me",
		channelID, messageID, url.PathEscape(emoji.APIName()))
	return c.doJSON(ctx, http.MethodPut, path, nil, nil, nil)
}

// ReactionUsers lists the users who applied an emoji to a message.
func (c *Client) ReactionUsers(ctx context.Context, channelID, messageID string, emoji types.Emoji) ([]types.User, error) {
	path := fmt.Sprintf("/channels/%s/messages/%s/reactions/%s",
		channelID, messageID, url.PathEscape(emoji.APIName()))
	var users []types.User
	err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &users)
	return users, err
}

// EditProfile updates the authenticated account's username or avatar.
func (c *Client) EditProfile(ctx context.Context, edit ProfileEdit) error {
	return c.doJSON(ctx, http.MethodPatch, "/users/@me", nil, edit, nil)
}

// FetchImage downloads an image (avatar CDN asset) as raw bytes.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: "image fetch failed"}
	}
	return io.ReadAll(resp.Body)
}

// EditMember updates the credential's member record in a guild.
func (c *Client) EditMember(ctx context.Context, guildID, userID string, edit MemberEdit) error {
	return c.doJSON(ctx, http.MethodPatch, "/guilds/"+guildID+"/members/"+userID, nil, edit, nil)
}

// EditRole changes a role's colour.
func (c *Client) EditRole(ctx context.Context, guildID, roleID string, color int) (types.Role, error) {
	req := map[string]any{"color": color}
	var role types.Role
	err := c.doJSON(ctx, http.MethodPatch, "/guilds/"+guildID+"/roles/"+roleID, nil, req, &role)
	return role, err
}

// StartThread creates a public thread on a channel. Archive duration is
// pinned to one week.
func (c *Client) StartThread(ctx context.Context, channelID, name string) (types.Thread, error) {
	req := map[string]any{
		"name":                  name,
		"type":                  types.ChannelTypePublicThread,
		"auto_archive_duration": 10080,
	}
	var thread types.Thread
	err := c.doJSON(ctx, http.MethodPost, "/channels/"+channelID+"/threads", nil, req, &thread)
	return thread, err
}

// Thread fetches a thread by id.
func (c *Client) Thread(ctx context.Context, threadID string) (types.Thread, error) {
	var thread types.Thread
	err := c.doJSON(ctx, http.MethodGet, "/channels/"+threadID, nil, nil, &thread)
	return thread, err
}

// RenameThread renames a thread.
func (c *Client) RenameThread(ctx context.Context, threadID, name string) error {
	req := map[string]any{"name": name}
	return c.doJSON(ctx, http.MethodPatch, "/channels/"+threadID, nil, req, nil)
}

// ActiveThreads lists the guild's active threads.
func (c *Client) ActiveThreads(ctx context.Context, guildID string) ([]types.Thread, error) {
	var resp struct {
		Threads []types.Thread `json:"threads"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/guilds/"+guildID+"/threads/active", nil, nil, &resp)
	return resp.Threads, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, respBody any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload apiErrorPayload
		if err := json.Unmarshal(respData, &payload); err == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(respData))
		}
		return apiErr
	}

	if respBody == nil || len(respData) == 0 {
		return nil
	}
	return json.Unmarshal(respData, respBody)
}
