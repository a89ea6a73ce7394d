package platform

import (
	"context"

	"github.com/zenercurrent/discord-live-backup/internal/types"
)

// Event is a gateway-delivered event. The concrete types below are the
// only ones the replication core consumes.
type Event any

// Ready signals the gateway session is established.
type Ready struct {
	User types.User
}

// MessageCreate carries one newly posted message.
type MessageCreate struct {
	Message types.Message
}

// Gateway delivers events from one persistent platform connection.
// Connection management, heartbeating, and resume are owned by the
// implementation; the core only drains Events. Events for a single
// connection arrive in source order and must be consumed sequentially
// to preserve per-channel replication order.
type Gateway interface {
	// Run connects and pumps events until ctx is cancelled or the
	// connection fails terminally.
	Run(ctx context.Context) error
	// Events returns the delivery channel. Closed when Run returns.
	Events() <-chan Event
}
