package types

import (
	"fmt"
	"time"
)

// ChannelType identifies the kind of channel object.
type ChannelType int

const (
	ChannelTypeText         ChannelType = 0
	ChannelTypePublicThread ChannelType = 11
)

// User represents a platform account.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Bot           bool   `json:"bot,omitempty"`
}

// Tag returns the human-readable account tag.
func (u User) Tag() string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// Mention returns the inline mention token for the user.
func (u User) Mention() string {
	return "<@" + u.ID + ">"
}

// AvatarURL returns the CDN location of the user's avatar, or empty
// when the user has no custom avatar.
func (u User) AvatarURL() string {
	if u.Avatar == "" {
		return ""
	}
	return "https://cdn.discordapp.com/avatars/" + u.ID + "/" + u.Avatar + ".png"
}

// Member represents a user's membership in a guild.
type Member struct {
	User  User     `json:"user"`
	Nick  string   `json:"nick,omitempty"`
	Roles []string `json:"roles"`
}

// Role represents a guild role.
type Role struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    int    `json:"color"`
	Position int    `json:"position"`
}

// Channel represents a guild channel.
type Channel struct {
	ID       string      `json:"id"`
	GuildID  string      `json:"guild_id,omitempty"`
	Name     string      `json:"name"`
	Type     ChannelType `json:"type"`
	ParentID string      `json:"parent_id,omitempty"`
}

// Thread represents an active discussion thread.
type Thread struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Name     string `json:"name"`
}

// Emoji represents a reaction emoji, custom or unicode.
type Emoji struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// APIName returns the reaction-endpoint encoding of the emoji.
func (e Emoji) APIName() string {
	if e.ID == "" {
		return e.Name
	}
	return e.Name + ":" + e.ID
}

// Custom reports whether the emoji is guild-specific.
func (e Emoji) Custom() bool {
	return e.ID != ""
}

// Attachment represents an uploaded file on a message.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// Embed is an opaque rich-content block. Replication passes embeds
// through without interpreting them.
type Embed map[string]any

// Reaction summarizes one emoji's reactions on a message.
type Reaction struct {
	Emoji Emoji `json:"emoji"`
	Count int   `json:"count"`
}

// Message represents a channel message.
type Message struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channel_id"`
	GuildID     string       `json:"guild_id,omitempty"`
	Author      User         `json:"author"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Embeds      []Embed      `json:"embeds,omitempty"`
	Reactions   []Reaction   `json:"reactions,omitempty"`
	Pinned      bool         `json:"pinned,omitempty"`
}

// ValidateSnowflake checks that s is a plausible platform id: a
// non-empty all-digit string. Snowflakes order numerically by creation
// time, which history pagination relies on.
func ValidateSnowflake(s string) error {
	if s == "" {
		return fmt.Errorf("empty id")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("invalid id %q: must be all digits", s)
		}
	}
	return nil
}
