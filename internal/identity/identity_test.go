package identity

import (
	"context"
	"testing"

	"github.com/zenercurrent/discord-live-backup/internal/platform"
	"github.com/zenercurrent/discord-live-backup/internal/platform/platformtest"
	"github.com/zenercurrent/discord-live-backup/internal/types"
)

func TestPrimeSnapshotsDirectories(t *testing.T) {
	fake := &platformtest.Fake{
		Self: types.User{ID: "500", Username: "proxy"},
		Channels: []types.Channel{
			{ID: "b1", Name: "general", Type: types.ChannelTypeText},
			{ID: "b2", Name: "old-thread", Type: types.ChannelTypePublicThread},
		},
		Roles: []types.Role{{ID: "r1", Name: "mods"}},
	}
	id := New("42", fake, "800")
	if err := id.Prime(context.Background()); err != nil {
		t.Fatal(err)
	}

	if id.SelfID() != "500" {
		t.Errorf("self id = %q", id.SelfID())
	}
	if id.Mention() != "<@500>" {
		t.Errorf("mention = %q", id.Mention())
	}
	if _, ok := id.Channel("general"); !ok {
		t.Error("text channel missing from directory")
	}
	// Threads share the channel listing but are not send targets.
	if _, ok := id.Channel("old-thread"); ok {
		t.Error("thread must not appear in the channel directory")
	}
	if _, ok := id.Role("mods"); !ok {
		t.Error("role missing from directory")
	}
}

// A directory miss gets one re-scan before failing, so a channel
// created after Prime still resolves.
func TestSendRescansOnDirectoryMiss(t *testing.T) {
	fake := &platformtest.Fake{Self: types.User{ID: "500"}}
	id := New("42", fake, "800")
	if err := id.Prime(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := fake.CreateChannel(context.Background(), "800", "late"); err != nil {
		t.Fatal(err)
	}
	msg, err := id.Send(context.Background(), "late", platform.SendMessageRequest{Content: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if msg.Content != "hi" {
		t.Errorf("sent = %+v", msg)
	}

	if _, err := id.Send(context.Background(), "never", platform.SendMessageRequest{Content: "x"}); err == nil {
		t.Error("unknown channel must fail after the re-scan")
	}
}

func TestNewFromTokenDefaults(t *testing.T) {
	id := NewFromToken(DefaultKey, "tok", "800")
	if !id.IsDefault {
		t.Error("master identity must be default")
	}
	if id.GuildID() != "800" {
		t.Errorf("guild = %q", id.GuildID())
	}
	other := NewFromToken("42", "tok", "800")
	if other.IsDefault {
		t.Error("dedicated identity must not be default")
	}
}
