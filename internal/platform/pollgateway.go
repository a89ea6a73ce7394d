package platform

import (
	"context"
	"sort"
	"time"
)

// GatewayFactory builds a gateway once the orchestrator knows which
// channels it needs events for.
type GatewayFactory func(api API, channelIDs []string) Gateway

// PollGateway delivers MessageCreate events by polling each watched
// channel's history on a fixed interval. Channels are drained in a
// stable order and each channel's page is emitted oldest-first, so
// per-channel event order matches source order.
type PollGateway struct {
	api      API
	channels []string
	interval time.Duration
	events   chan Event
	cursors  map[string]string
}

// NewPollGateway builds a gateway polling the given channel ids.
func NewPollGateway(api API, channelIDs []string, interval time.Duration) *PollGateway {
	if interval <= 0 {
		interval = time.Second
	}
	return &PollGateway{
		api:      api,
		channels: channelIDs,
		interval: interval,
		events:   make(chan Event),
		cursors:  make(map[string]string),
	}
}

// Events returns the delivery channel. Closed when Run returns.
func (g *PollGateway) Events() <-chan Event {
	return g.events
}

// Run seeds each channel cursor at its latest message, emits Ready,
// then pumps new messages until ctx is cancelled.
func (g *PollGateway) Run(ctx context.Context) error {
	defer close(g.events)

	me, err := g.api.Me(ctx)
	if err != nil {
		return err
	}
	for _, channelID := range g.channels {
		latest, err := g.api.LatestMessage(ctx, channelID)
		if err != nil {
			if IsUnknownMessage(err) {
				g.cursors[channelID] = "0"
				continue
			}
			return err
		}
		g.cursors[channelID] = latest.ID
	}

	if !g.emit(ctx, Ready{User: me}) {
		return ctx.Err()
	}

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.poll(ctx); err != nil {
				return err
			}
		}
	}
}

func (g *PollGateway) poll(ctx context.Context) error {
	for _, channelID := range g.channels {
		page, err := g.api.MessagesAfter(ctx, channelID, g.cursors[channelID], 100)
		if err != nil {
			// Transient fetch failures skip the channel this tick.
			continue
		}
		if len(page) == 0 {
			continue
		}
		sort.Slice(page, func(i, j int) bool {
			return snowflakeLess(page[i].ID, page[j].ID)
		})
		for _, msg := range page {
			if !g.emit(ctx, MessageCreate{Message: msg}) {
				return ctx.Err()
			}
			g.cursors[channelID] = msg.ID
		}
	}
	return nil
}

func (g *PollGateway) emit(ctx context.Context, ev Event) bool {
	select {
	case g.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
