package stats

import (
	"github.com/zenercurrent/discord-live-backup/internal/types"
)

// Topic is one per-channel counter. Classify inspects a message and
// returns the increment it contributes, or false for no contribution.
// Classifiers are pure.
type Topic struct {
	Title    string
	Classify func(msg types.Message) (int, bool)
}

// DefaultTopics returns the stock counter set.
func DefaultTopics() []Topic {
	return []Topic{
		{
			Title: "Total Messages Sent",
			Classify: func(types.Message) (int, bool) {
				return 1, true
			},
		},
		{
			Title: "Total Attachments Sent",
			Classify: func(msg types.Message) (int, bool) {
				if len(msg.Attachments) == 0 {
					return 0, false
				}
				return len(msg.Attachments), true
			},
		},
	}
}
