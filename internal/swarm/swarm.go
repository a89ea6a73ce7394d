// Package swarm orchestrates the proxy identities: it drains the
// gateway, routes each source event to the identity that replays it,
// and owns the console, batch import, and counter subsystems.
package swarm

import (
	"context"
	"fmt"

	"github.com/gobwas/glob"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zenercurrent/discord-live-backup/internal/config"
	"github.com/zenercurrent/discord-live-backup/internal/console"
	"github.com/zenercurrent/discord-live-backup/internal/identity"
	"github.com/zenercurrent/discord-live-backup/internal/platform"
	"github.com/zenercurrent/discord-live-backup/internal/reactions"
	"github.com/zenercurrent/discord-live-backup/internal/sched"
	"github.com/zenercurrent/discord-live-backup/internal/stats"
	"github.com/zenercurrent/discord-live-backup/internal/transform"
	"github.com/zenercurrent/discord-live-backup/internal/types"
)

// Swarm composes the master identity, the dedicated proxies, and the
// replication subsystems. The master's connection observes the source
// guild; every identity posts into the backup guild.
type Swarm struct {
	cfg        *config.Config
	master     *identity.Identity
	router     *identity.Router
	gatewayFor platform.GatewayFactory
	gateway    platform.Gateway
	monitored  []glob.Glob
	log        *zap.Logger

	pipeline   transform.Pipeline
	replicator *reactions.Replicator
	console    *console.Interpreter
	stats      *stats.Store

	// startup snapshots, immutable once Run has primed them
	sourceByID  map[string]types.Channel // monitored source channels by id
	sourceOrder []types.Channel          // monitored source channels, configuration order
	selfIDs     map[string]bool          // every identity's own account id
	configPath  string
	flushAt     sched.TimeOfDay
}

// New builds a swarm from config. Identities are constructed here from
// the credential roster; tokens are consumed by the platform clients
// and not retained.
func New(cfg *config.Config, gatewayFor platform.GatewayFactory, configPath string, log *zap.Logger) (*Swarm, error) {
	monitored, err := cfg.CompileMonitored()
	if err != nil {
		return nil, err
	}
	flushAt, err := cfg.FlushTime()
	if err != nil {
		return nil, err
	}

	master := identity.NewFromToken(identity.DefaultKey, cfg.MasterToken, cfg.BackupGuildID)
	dedicated := make([]*identity.Identity, 0, len(cfg.Swarm))
	for userID, token := range cfg.Swarm {
		dedicated = append(dedicated, identity.NewFromToken(userID, token, cfg.BackupGuildID))
	}

	s := &Swarm{
		cfg:        cfg,
		master:     master,
		router:     identity.NewRouter(dedicated, master),
		gatewayFor: gatewayFor,
		monitored:  monitored,
		log:        log,
		configPath: configPath,
		flushAt:    flushAt,
	}
	s.stats = stats.New(master.API(), cfg.BackupGuildID, stats.DefaultTopics(), log.Named("stats"))
	s.console = console.New(cfg.ConsoleChannelID, s, s.replyToConsole, log.Named("console"))
	return s, nil
}

// Run primes the swarm and drives it until ctx is cancelled: the
// gateway pump, the event loop, the daily counter flush, and the
// config-file watcher.
func (s *Swarm) Run(ctx context.Context) error {
	if err := s.setup(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.gateway.Run(ctx)
	})
	g.Go(func() error {
		s.eventLoop(ctx)
		return nil
	})
	g.Go(func() error {
		sched.Daily(ctx, s.flushAt, s.stats.Flush)
		return nil
	})
	if s.configPath != "" {
		g.Go(func() error {
			return s.watchConfig(ctx)
		})
	}
	return g.Wait()
}

// setup primes every identity, snapshots the monitored source
// channels, ensures backup channels and the placeholder emoji exist,
// builds the transform tables, and reconciles the counter threads.
func (s *Swarm) setup(ctx context.Context) error {
	for _, id := range s.router.All() {
		if err := id.Prime(ctx); err != nil {
			return err
		}
	}

	s.selfIDs = make(map[string]bool)
	for _, id := range s.router.All() {
		s.selfIDs[id.SelfID()] = true
	}

	if err := s.snapshotSource(ctx); err != nil {
		return err
	}
	if err := s.ensureBackupChannels(ctx); err != nil {
		return err
	}

	placeholder, err := s.ensurePlaceholderEmoji(ctx)
	if err != nil {
		return err
	}
	s.replicator = reactions.New(s.router, placeholder, s.log.Named("reactions"))

	if err := s.buildPipeline(ctx); err != nil {
		return err
	}

	backupChannels := make([]types.Channel, 0, len(s.sourceOrder))
	for _, src := range s.sourceOrder {
		if ch, ok := s.master.Channel(src.Name); ok {
			backupChannels = append(backupChannels, ch)
		}
	}
	if err := s.stats.Reconcile(ctx, backupChannels); err != nil {
		return err
	}

	watched := make([]string, 0, len(s.sourceOrder)+1)
	for _, src := range s.sourceOrder {
		watched = append(watched, src.ID)
	}
	watched = append(watched, s.cfg.ConsoleChannelID)
	s.gateway = s.gatewayFor(s.master.API(), watched)

	s.log.Info("swarm ready",
		zap.Int("identities", len(s.router.All())),
		zap.Int("monitored_channels", len(s.sourceOrder)))
	return nil
}

// snapshotSource lists the source guild's text channels and keeps the
// ones matching a monitored pattern, in listing order.
func (s *Swarm) snapshotSource(ctx context.Context) error {
	channels, err := s.master.API().GuildChannels(ctx, s.cfg.SourceGuildID)
	if err != nil {
		return fmt.Errorf("list source channels: %w", err)
	}
	s.sourceByID = make(map[string]types.Channel)
	s.sourceOrder = nil
	for _, ch := range channels {
		if ch.Type != types.ChannelTypeText {
			continue
		}
		for _, g := range s.monitored {
			if g.Match(ch.Name) {
				s.sourceByID[ch.ID] = ch
				s.sourceOrder = append(s.sourceOrder, ch)
				break
			}
		}
	}
	if len(s.sourceOrder) == 0 {
		return fmt.Errorf("no source channels match the monitored patterns")
	}
	return nil
}

// ensureBackupChannels creates a same-named backup channel for every
// monitored source channel that lacks one, then re-scans every
// identity's channel directory so the new channels resolve.
func (s *Swarm) ensureBackupChannels(ctx context.Context) error {
	created := false
	for _, src := range s.sourceOrder {
		if _, ok := s.master.Channel(src.Name); ok {
			continue
		}
		if _, err := s.master.API().CreateChannel(ctx, s.cfg.BackupGuildID, src.Name); err != nil {
			return fmt.Errorf("create backup channel %q: %w", src.Name, err)
		}
		s.log.Info("created backup channel", zap.String("name", src.Name))
		created = true
	}
	if !created {
		return nil
	}
	for _, id := range s.router.All() {
		if err := id.RefreshChannels(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ensurePlaceholderEmoji finds or creates the guild's unknown-emoji
// sentinel.
func (s *Swarm) ensurePlaceholderEmoji(ctx context.Context) (types.Emoji, error) {
	emojis, err := s.master.API().GuildEmojis(ctx, s.cfg.BackupGuildID)
	if err != nil {
		return types.Emoji{}, fmt.Errorf("list backup emojis: %w", err)
	}
	for _, e := range emojis {
		if e.Name == reactions.PlaceholderEmojiName {
			return e, nil
		}
	}
	created, err := s.master.API().CreateEmoji(ctx, s.cfg.BackupGuildID, reactions.PlaceholderEmojiName, placeholderEmojiPNG)
	if err != nil {
		return types.Emoji{}, fmt.Errorf("create placeholder emoji: %w", err)
	}
	s.log.Info("created placeholder emoji", zap.String("id", created.ID))
	return created, nil
}

// buildPipeline assembles the mention-rewrite tables from the roster
// and the two guilds' role lists. Role names are the join key.
func (s *Swarm) buildPipeline(ctx context.Context) error {
	roster := make(map[string]string)
	for _, id := range s.router.Dedicated() {
		roster[id.UserID] = id.SelfID()
	}

	srcRoles, err := s.master.API().GuildRoles(ctx, s.cfg.SourceGuildID)
	if err != nil {
		return fmt.Errorf("list source roles: %w", err)
	}
	sourceRoles := make(map[string]string, len(srcRoles))
	backupRoles := make(map[string]string, len(srcRoles))
	for _, r := range srcRoles {
		sourceRoles[r.ID] = r.Name
		if backup, ok := s.master.Role(r.Name); ok {
			backupRoles[r.Name] = backup.ID
		}
	}

	s.pipeline = transform.Pipeline{
		Roster:      roster,
		SourceRoles: sourceRoles,
		BackupRoles: backupRoles,
		TZOffset:    s.cfg.TZOffset(),
	}
	return nil
}

// eventLoop drains the gateway. Events are handled strictly in arrival
// order, one at a time; the replication of message N completes before
// N+1 is looked at, which preserves per-channel backup ordering.
func (s *Swarm) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.gateway.Events():
			if !ok {
				return
			}
			s.handleEvent(ctx, ev)
		}
	}
}

func (s *Swarm) handleEvent(ctx context.Context, ev platform.Event) {
	switch e := ev.(type) {
	case platform.Ready:
		s.log.Info("gateway ready", zap.String("user", e.User.Tag()))
	case platform.MessageCreate:
		s.handleMessage(ctx, e.Message)
	}
}

func (s *Swarm) handleMessage(ctx context.Context, msg types.Message) {
	if s.selfIDs[msg.Author.ID] {
		return
	}
	if msg.ChannelID == s.cfg.ConsoleChannelID {
		// Command failures are already reported to the console by the
		// interpreter; nothing more to do with the error here.
		if err := s.console.HandleMessage(ctx, msg); err != nil {
			s.log.Warn("console command error", zap.Error(err))
		}
		return
	}
	if _, ok := s.sourceByID[msg.ChannelID]; !ok {
		return
	}
	if err := s.replicate(ctx, msg, false); err != nil {
		s.log.Error("live replication failed",
			zap.String("message", msg.ID),
			zap.String("channel", msg.ChannelID),
			zap.Error(err))
	}
}

// replicate is the shared path for live traffic and batch import:
// route the author, rewrite the content, send via the routed identity,
// clone reactions, tally counters.
func (s *Swarm) replicate(ctx context.Context, msg types.Message, batch bool) error {
	src, ok := s.sourceByID[msg.ChannelID]
	if !ok {
		return fmt.Errorf("message %s is not in a monitored channel", msg.ID)
	}

	id := s.router.Route(msg.Author.ID)
	content := s.pipeline.Transform(msg.Content, transform.Options{
		BatchImport: batch,
		Timestamp:   msg.Timestamp,
		ViaDefault:  id.IsDefault,
		AuthorTag:   msg.Author.Tag(),
	})
	for _, a := range msg.Attachments {
		content += "\n" + a.URL
	}

	backup, err := id.Send(ctx, src.Name, platform.SendMessageRequest{
		Content: content,
		Embeds:  msg.Embeds,
	})
	if err != nil {
		return fmt.Errorf("send to backup %q: %w", src.Name, err)
	}

	if err := s.replicator.Replicate(ctx, msg, s.master.API(), id, backup); err != nil {
		return err
	}

	s.stats.Check(backup.ChannelID, msg)
	return nil
}

// replyToConsole posts into the console channel as the master.
func (s *Swarm) replyToConsole(ctx context.Context, text string) error {
	_, err := s.master.API().SendMessage(ctx, s.cfg.ConsoleChannelID, platform.SendMessageRequest{Content: text})
	return err
}

// Stats exposes the counter store for out-of-band corrections.
func (s *Swarm) Stats() *stats.Store {
	return s.stats
}
