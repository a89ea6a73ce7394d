package swarm

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"

	"github.com/zenercurrent/discord-live-backup/internal/platform"
	"github.com/zenercurrent/discord-live-backup/internal/types"
)

// FindMessage resolves a message id against every monitored source
// channel, in configuration order, until one has it.
func (s *Swarm) FindMessage(ctx context.Context, messageID string) (types.Message, types.Channel, error) {
	for _, ch := range s.sourceOrder {
		msg, err := s.master.API().Message(ctx, ch.ID, messageID)
		if err == nil {
			return msg, ch, nil
		}
		if platform.IsUnknownMessage(err) {
			continue
		}
		s.log.Warn("message lookup failed",
			zap.String("channel", ch.Name),
			zap.String("message", messageID),
			zap.Error(err))
	}
	return types.Message{}, types.Channel{}, fmt.Errorf("message %s not found in %d monitored channels", messageID, len(s.sourceOrder))
}

// SyncProfiles copies each mapped source user's current avatar,
// username, and nickname onto their proxy identity's backup profile.
func (s *Swarm) SyncProfiles(ctx context.Context) error {
	for _, id := range s.router.Dedicated() {
		member, err := s.master.API().GuildMember(ctx, s.cfg.SourceGuildID, id.UserID)
		if err != nil {
			return fmt.Errorf("fetch source member %s: %w", id.UserID, err)
		}

		edit := platform.ProfileEdit{Username: &member.User.Username}
		if avatarURL := member.User.AvatarURL(); avatarURL != "" {
			data, err := s.master.API().FetchImage(ctx, avatarURL)
			if err != nil {
				return fmt.Errorf("fetch avatar for %s: %w", member.User.Tag(), err)
			}
			encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
			edit.Avatar = &encoded
		}
		if err := id.API().EditProfile(ctx, edit); err != nil {
			return fmt.Errorf("edit profile for proxy of %s: %w", member.User.Tag(), err)
		}

		if member.Nick != "" {
			nick := member.Nick
			if err := id.API().EditMember(ctx, s.cfg.BackupGuildID, id.SelfID(), platform.MemberEdit{Nick: &nick}); err != nil {
				return fmt.Errorf("edit nickname for proxy of %s: %w", member.User.Tag(), err)
			}
		}
		s.log.Info("synced profile", zap.String("user", member.User.Tag()))
	}
	return nil
}

// SyncRoles creates every source role missing (by name) from the
// backup guild with matching name and colour, then assigns each
// dedicated identity the backup role matching its user's top coloured
// source role so display colours line up.
func (s *Swarm) SyncRoles(ctx context.Context) error {
	srcRoles, err := s.master.API().GuildRoles(ctx, s.cfg.SourceGuildID)
	if err != nil {
		return fmt.Errorf("list source roles: %w", err)
	}

	srcByID := make(map[string]types.Role, len(srcRoles))
	created := false
	for _, role := range srcRoles {
		srcByID[role.ID] = role
		if role.Name == "@everyone" {
			continue
		}
		if _, ok := s.master.Role(role.Name); ok {
			continue
		}
		if _, err := s.master.API().CreateRole(ctx, s.cfg.BackupGuildID, role.Name, role.Color); err != nil {
			return fmt.Errorf("create backup role %q: %w", role.Name, err)
		}
		s.log.Info("created backup role", zap.String("name", role.Name))
		created = true
	}
	if created {
		if err := s.master.RefreshRoles(ctx); err != nil {
			return err
		}
	}

	for _, id := range s.router.Dedicated() {
		member, err := s.master.API().GuildMember(ctx, s.cfg.SourceGuildID, id.UserID)
		if err != nil {
			return fmt.Errorf("fetch source member %s: %w", id.UserID, err)
		}
		top, ok := topColoredRole(member, srcByID)
		if !ok {
			continue
		}
		backup, ok := s.master.Role(top.Name)
		if !ok {
			continue
		}
		edit := platform.MemberEdit{Roles: []string{backup.ID}}
		if err := id.API().EditMember(ctx, s.cfg.BackupGuildID, id.SelfID(), edit); err != nil {
			return fmt.Errorf("assign role %q to proxy of %s: %w", top.Name, member.User.Tag(), err)
		}
	}
	return nil
}

// topColoredRole returns the member's highest-positioned role with a
// non-default colour.
func topColoredRole(member types.Member, rolesByID map[string]types.Role) (types.Role, bool) {
	var top types.Role
	found := false
	for _, roleID := range member.Roles {
		role, ok := rolesByID[roleID]
		if !ok || role.Color == 0 {
			continue
		}
		if !found || role.Position > top.Position {
			top = role
			found = true
		}
	}
	return top, found
}
