// Package stats maintains per-channel activity counters encoded in the
// titles of long-lived discussion threads. A thread named
// "Total Messages Sent - 42" is the counter; the value has no other
// storage. Increments accumulate in memory and are written out by a
// scheduled flush so per-message renames never hit the platform.
package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/zenercurrent/discord-live-backup/internal/platform"
	"github.com/zenercurrent/discord-live-backup/internal/types"
)

// Store owns the counter threads of one backup guild.
type Store struct {
	api     platform.API
	guildID string
	topics  []Topic
	log     *zap.Logger

	mu sync.Mutex
	// threads is the startup reconciliation snapshot, replaced
	// wholesale by Reconcile and never mutated elsewhere.
	threads map[string]map[string]string // channel id -> title -> thread id
	deltas  map[string]map[string]int    // channel id -> title -> pending delta
}

// New builds a Store. The topic set is fixed for the process lifetime.
func New(api platform.API, guildID string, topics []Topic, log *zap.Logger) *Store {
	return &Store{
		api:     api,
		guildID: guildID,
		topics:  topics,
		log:     log,
		threads: make(map[string]map[string]string),
		deltas:  make(map[string]map[string]int),
	}
}

// Reconcile scans the guild's active threads and provisions one counter
// thread per (channel, topic) that lacks one. New threads start at
// "<title> - 0". The platform's auto-generated thread-creation
// announcement is deleted; failures there are cosmetic and absorbed.
func (s *Store) Reconcile(ctx context.Context, channels []types.Channel) error {
	active, err := s.api.ActiveThreads(ctx, s.guildID)
	if err != nil {
		return fmt.Errorf("list active threads: %w", err)
	}

	snapshot := make(map[string]map[string]string, len(channels))
	for _, ch := range channels {
		snapshot[ch.ID] = make(map[string]string, len(s.topics))
	}
	for _, thread := range active {
		byTitle, ok := snapshot[thread.ParentID]
		if !ok {
			continue
		}
		for _, topic := range s.topics {
			if strings.HasPrefix(thread.Name, topic.Title) {
				byTitle[topic.Title] = thread.ID
				break
			}
		}
	}

	for _, ch := range channels {
		for _, topic := range s.topics {
			if snapshot[ch.ID][topic.Title] != "" {
				continue
			}
			thread, err := s.api.StartThread(ctx, ch.ID, topic.Title+" - 0")
			if err != nil {
				return fmt.Errorf("provision counter %q on channel %s: %w", topic.Title, ch.Name, err)
			}
			snapshot[ch.ID][topic.Title] = thread.ID
			s.deleteCreationNotice(ctx, ch.ID)
			s.log.Info("provisioned counter thread",
				zap.String("channel", ch.Name),
				zap.String("topic", topic.Title))
		}
	}

	s.mu.Lock()
	s.threads = snapshot
	s.mu.Unlock()
	return nil
}

// deleteCreationNotice removes the platform's announcement message that
// thread creation drops into the parent channel.
func (s *Store) deleteCreationNotice(ctx context.Context, channelID string) {
	latest, err := s.api.LatestMessage(ctx, channelID)
	if err != nil {
		s.log.Debug("fetch creation notice failed", zap.Error(err))
		return
	}
	if err := s.api.DeleteMessage(ctx, channelID, latest.ID); err != nil {
		s.log.Debug("delete creation notice failed", zap.Error(err))
	}
}

// Check runs every topic classifier against a replicated message and
// accumulates the resulting increments for the backup channel.
func (s *Store) Check(backupChannelID string, msg types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, topic := range s.topics {
		n, ok := topic.Classify(msg)
		if !ok {
			continue
		}
		if s.deltas[backupChannelID] == nil {
			s.deltas[backupChannelID] = make(map[string]int)
		}
		s.deltas[backupChannelID][topic.Title] += n
	}
}

// Flush writes every non-zero cached delta into its thread title via
// read-then-rename, then resets the cache whether or not every topic
// succeeded. A failed rename loses that interval's delta; there is no
// retry. A title parse failure skips that topic only.
func (s *Store) Flush(ctx context.Context) {
	s.mu.Lock()
	pending := s.deltas
	s.deltas = make(map[string]map[string]int)
	s.mu.Unlock()

	for channelID, byTitle := range pending {
		for title, delta := range byTitle {
			if delta == 0 {
				continue
			}
			if err := s.Update(ctx, channelID, title, delta, true); err != nil {
				s.log.Warn("counter flush failed",
					zap.String("channel", channelID),
					zap.String("topic", title),
					zap.Int("lost_delta", delta),
					zap.Error(err))
			}
		}
	}
}

// Update is the read-modify-write primitive behind Flush. With
// increment false the value overwrites instead of adding, for
// out-of-band corrections.
func (s *Store) Update(ctx context.Context, channelID, title string, value int, increment bool) error {
	s.mu.Lock()
	threadID := s.threads[channelID][title]
	s.mu.Unlock()
	if threadID == "" {
		return fmt.Errorf("no counter thread for channel %s topic %q", channelID, title)
	}

	if increment {
		thread, err := s.api.Thread(ctx, threadID)
		if err != nil {
			return fmt.Errorf("read counter thread: %w", err)
		}
		prev, err := ParseCounter(thread.Name, title)
		if err != nil {
			return err
		}
		value += prev
	}

	if err := s.api.RenameThread(ctx, threadID, EncodeCounter(title, value)); err != nil {
		return fmt.Errorf("rename counter thread: %w", err)
	}
	return nil
}

// EncodeCounter renders the thread title for a counter value.
func EncodeCounter(title string, value int) string {
	return fmt.Sprintf("%s - %d", title, value)
}

// ParseCounter extracts the counter value from a thread title. The
// value must be the plain non-negative integer suffix after the
// literal "<title> - " prefix; anything else means the thread was
// renamed externally and the counter is unreadable.
func ParseCounter(name, title string) (int, error) {
	prefix := title + " - "
	if !strings.HasPrefix(name, prefix) {
		return 0, fmt.Errorf("counter title %q does not start with %q", name, prefix)
	}
	suffix := name[len(prefix):]
	value, err := strconv.Atoi(suffix)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("counter title %q has unparseable value %q", name, suffix)
	}
	return value, nil
}
