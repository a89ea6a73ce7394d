package reactions

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/zenercurrent/discord-live-backup/internal/identity"
	"github.com/zenercurrent/discord-live-backup/internal/platform"
	"github.com/zenercurrent/discord-live-backup/internal/platform/platformtest"
	"github.com/zenercurrent/discord-live-backup/internal/types"
)

var placeholder = types.Emoji{ID: "888", Name: PlaceholderEmojiName}

func primedIdentity(t *testing.T, userID string, fake *platformtest.Fake) *identity.Identity {
	t.Helper()
	id := identity.New(userID, fake, "backup-guild")
	if err := id.Prime(context.Background()); err != nil {
		t.Fatal(err)
	}
	return id
}

func sendBackup(t *testing.T, fake *platformtest.Fake) types.Message {
	t.Helper()
	msg, err := fake.SendMessage(context.Background(), "bch", platform.SendMessageRequest{Content: "backup body"})
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func rejectEmoji(name string) func(string, string, types.Emoji) error {
	return func(_, _ string, e types.Emoji) error {
		if e.Name == name {
			return platformtest.UnknownEmojiErr()
		}
		return nil
	}
}

// Two unmapped users reacted with a custom emoji no identity can
// render: exactly one placeholder reaction and a footnote counting one
// unknown reactor, not two.
func TestReplicateUnknownEmojiDedupe(t *testing.T) {
	defFake := &platformtest.Fake{Self: types.User{ID: "900", Username: "master"}}
	defFake.ReactErr = rejectEmoji("weird")
	def := primedIdentity(t, identity.DefaultKey, defFake)
	router := identity.NewRouter(nil, def)
	rep := New(router, placeholder, zap.NewNop())

	srcFake := &platformtest.Fake{
		ReactionUserList: map[string]map[string][]types.User{
			"555": {"weird:777": {
				{ID: "1", Username: "u1"},
				{ID: "2", Username: "u2"},
			}},
		},
	}
	src := types.Message{
		ID:        "555",
		ChannelID: "sch",
		Reactions: []types.Reaction{{Emoji: types.Emoji{ID: "777", Name: "weird"}, Count: 2}},
	}
	backup := sendBackup(t, defFake)

	if err := rep.Replicate(context.Background(), src, srcFake, def, backup); err != nil {
		t.Fatal(err)
	}

	if len(defFake.Reacts) != 1 {
		t.Fatalf("want exactly 1 reaction, got %d", len(defFake.Reacts))
	}
	if got := defFake.Reacts[0].Emoji; got.ID != placeholder.ID {
		t.Errorf("reacted with %v, want placeholder", got)
	}
	if len(defFake.Edits) != 1 {
		t.Fatalf("want 1 footnote edit, got %d", len(defFake.Edits))
	}
	footnote := defFake.Edits[0].Content
	if !strings.HasPrefix(footnote, "backup body") {
		t.Errorf("footnote must append to the sent content: %q", footnote)
	}
	if !strings.Contains(footnote, "**Unknown Reactions**") {
		t.Errorf("footnote header missing: %q", footnote)
	}
	if !strings.Contains(footnote, "+1 unknown") || strings.Contains(footnote, "+2") {
		t.Errorf("unknown-user count must be 1: %q", footnote)
	}
}

// A renderable emoji reacted by several unmapped users: the default
// identity reacts once with the original emoji and the footnote still
// records that anonymous users stood behind it.
func TestReplicateDefaultSuccessDedupe(t *testing.T) {
	defFake := &platformtest.Fake{Self: types.User{ID: "900", Username: "master"}}
	def := primedIdentity(t, identity.DefaultKey, defFake)
	router := identity.NewRouter(nil, def)
	rep := New(router, placeholder, zap.NewNop())

	srcFake := &platformtest.Fake{
		ReactionUserList: map[string]map[string][]types.User{
			"555": {"👍": {
				{ID: "1", Username: "u1"},
				{ID: "2", Username: "u2"},
				{ID: "3", Username: "u3"},
			}},
		},
	}
	src := types.Message{
		ID:        "555",
		ChannelID: "sch",
		Reactions: []types.Reaction{{Emoji: types.Emoji{Name: "👍"}, Count: 3}},
	}
	backup := sendBackup(t, defFake)

	if err := rep.Replicate(context.Background(), src, srcFake, def, backup); err != nil {
		t.Fatal(err)
	}

	if len(defFake.Reacts) != 1 {
		t.Fatalf("want 1 reaction, got %d", len(defFake.Reacts))
	}
	if got := defFake.Reacts[0].Emoji.Name; got != "👍" {
		t.Errorf("reacted with %q, want the original emoji", got)
	}
	if len(defFake.Edits) != 1 || !strings.Contains(defFake.Edits[0].Content, "+1 unknown") {
		t.Errorf("anonymous tally missing: %+v", defFake.Edits)
	}
}

// A dedicated identity that cannot render the emoji falls back to the
// placeholder and is named in the footnote by mention.
func TestReplicateDedicatedFallbackMention(t *testing.T) {
	defFake := &platformtest.Fake{Self: types.User{ID: "900", Username: "master"}}
	def := primedIdentity(t, identity.DefaultKey, defFake)

	aliceFake := &platformtest.Fake{Self: types.User{ID: "201", Username: "alice-proxy"}}
	aliceFake.ReactErr = rejectEmoji("weird")
	alice := primedIdentity(t, "100", aliceFake)

	router := identity.NewRouter([]*identity.Identity{alice}, def)
	rep := New(router, placeholder, zap.NewNop())

	srcFake := &platformtest.Fake{
		ReactionUserList: map[string]map[string][]types.User{
			"555": {"weird:777": {{ID: "100", Username: "alice"}}},
		},
	}
	src := types.Message{
		ID:        "555",
		ChannelID: "sch",
		Reactions: []types.Reaction{{Emoji: types.Emoji{ID: "777", Name: "weird"}, Count: 1}},
	}
	backup := sendBackup(t, defFake)

	if err := rep.Replicate(context.Background(), src, srcFake, def, backup); err != nil {
		t.Fatal(err)
	}

	if len(aliceFake.Reacts) != 1 || aliceFake.Reacts[0].Emoji.ID != placeholder.ID {
		t.Fatalf("dedicated identity should react once with placeholder: %+v", aliceFake.Reacts)
	}
	if len(defFake.Edits) != 1 || !strings.Contains(defFake.Edits[0].Content, "<@201>") {
		t.Errorf("footnote should mention the fallback identity: %+v", defFake.Edits)
	}
}

// Clean replication through dedicated identities produces no footnote.
func TestReplicateNoFallbackNoFootnote(t *testing.T) {
	defFake := &platformtest.Fake{Self: types.User{ID: "900", Username: "master"}}
	def := primedIdentity(t, identity.DefaultKey, defFake)

	aliceFake := &platformtest.Fake{Self: types.User{ID: "201", Username: "alice-proxy"}}
	alice := primedIdentity(t, "100", aliceFake)

	router := identity.NewRouter([]*identity.Identity{alice}, def)
	rep := New(router, placeholder, zap.NewNop())

	srcFake := &platformtest.Fake{
		ReactionUserList: map[string]map[string][]types.User{
			"555": {"👍": {{ID: "100", Username: "alice"}}},
		},
	}
	src := types.Message{
		ID:        "555",
		ChannelID: "sch",
		Reactions: []types.Reaction{{Emoji: types.Emoji{Name: "👍"}, Count: 1}},
	}
	backup := sendBackup(t, defFake)

	if err := rep.Replicate(context.Background(), src, srcFake, def, backup); err != nil {
		t.Fatal(err)
	}
	if len(aliceFake.Reacts) != 1 {
		t.Fatalf("want 1 reaction, got %d", len(aliceFake.Reacts))
	}
	if len(defFake.Edits) != 0 {
		t.Errorf("no footnote expected: %+v", defFake.Edits)
	}
}
