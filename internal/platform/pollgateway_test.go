package platform_test

import (
	"context"
	"testing"
	"time"

	"github.com/zenercurrent/discord-live-backup/internal/platform"
	"github.com/zenercurrent/discord-live-backup/internal/platform/platformtest"
	"github.com/zenercurrent/discord-live-backup/internal/types"
)

func collectEvents(t *testing.T, g platform.Gateway, n int, cancel context.CancelFunc) []platform.Event {
	t.Helper()
	var out []platform.Event
	deadline := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-g.Events():
			if !ok {
				t.Fatalf("events closed after %d of %d", len(out), n)
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	cancel()
	return out
}

func TestPollGatewaySkipsHistoryBeforeStart(t *testing.T) {
	fake := &platformtest.Fake{Self: types.User{ID: "500", Username: "dlb"}}
	fake.SeedMessage(types.Message{ID: "100", ChannelID: "s1", Content: "old"})

	g := platform.NewPollGateway(fake, []string{"s1"}, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	// Ready arrives first; the pre-existing message must not.
	events := collectEvents(t, g, 1, func() {})
	ready, ok := events[0].(platform.Ready)
	if !ok {
		t.Fatalf("first event = %T, want Ready", events[0])
	}
	if ready.User.ID != "500" {
		t.Errorf("ready user = %+v", ready.User)
	}

	// New traffic after startup is delivered oldest first.
	fake.SeedMessage(types.Message{ID: "101", ChannelID: "s1", Content: "first"})
	fake.SeedMessage(types.Message{ID: "102", ChannelID: "s1", Content: "second"})

	events = collectEvents(t, g, 2, cancel)
	for i, want := range []string{"101", "102"} {
		mc, ok := events[i].(platform.MessageCreate)
		if !ok {
			t.Fatalf("event %d = %T, want MessageCreate", i, events[i])
		}
		if mc.Message.ID != want {
			t.Errorf("event %d id = %s, want %s", i, mc.Message.ID, want)
		}
	}

	if err := <-done; err != context.Canceled {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}

func TestPollGatewayEmptyChannelStartsAtZero(t *testing.T) {
	fake := &platformtest.Fake{Self: types.User{ID: "500"}}

	g := platform.NewPollGateway(fake, []string{"s1"}, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	collectEvents(t, g, 1, func() {}) // Ready

	// The very first message in an empty channel is delivered.
	fake.SeedMessage(types.Message{ID: "100", ChannelID: "s1", Content: "hello"})
	events := collectEvents(t, g, 1, cancel)
	mc, ok := events[0].(platform.MessageCreate)
	if !ok {
		t.Fatalf("event = %T, want MessageCreate", events[0])
	}
	if mc.Message.ID != "100" {
		t.Errorf("id = %s, want 100", mc.Message.ID)
	}
	<-done
}
