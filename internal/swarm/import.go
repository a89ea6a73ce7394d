package swarm

import (
	"context"
	"sort"

	"github.com/zenercurrent/discord-live-backup/internal/types"
)

const importPageSize = 100

// Import walks source channel history strictly after afterID, oldest
// first with no upper bound, feeding every message through the same
// replication path as live traffic with the batch annotations enabled.
// The first error halts the walk; importing is operator-supervised and
// has no partial-failure recovery. Returns the count replicated.
func (s *Swarm) Import(ctx context.Context, source types.Channel, afterID string) (int, error) {
	count := 0
	cursor := afterID
	for {
		page, err := s.master.API().MessagesAfter(ctx, source.ID, cursor, importPageSize)
		if err != nil {
			return count, err
		}
		if len(page) == 0 {
			return count, nil
		}
		// The history endpoint does not guarantee page order; ids are
		// snowflakes, so sort ascending to replay oldest first.
		sort.Slice(page, func(i, j int) bool {
			return snowflakeLess(page[i].ID, page[j].ID)
		})
		for _, msg := range page {
			if err := ctx.Err(); err != nil {
				return count, err
			}
			if err := s.replicate(ctx, msg, true); err != nil {
				return count, err
			}
			count++
		}
		cursor = page[len(page)-1].ID
	}
}

// snowflakeLess orders two all-digit ids numerically.
func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
