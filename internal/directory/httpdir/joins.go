package httpdir

import (
	"context"
	"time"

	"rostersync/internal/directory"
)

// Joins exposes membership join events detected by Run.
func (c *Client) Joins() <-chan directory.JoinEvent {
	return c.joins
}

// Run polls the membership snapshot and emits a JoinEvent for every entity id
// not present in the previous poll. The first poll seeds the snapshot without
// emitting so a daemon restart does not replay the whole membership.
func (c *Client) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.joinPoll)
	defer ticker.Stop()

	var known map[string]struct{}

	for {
		members, err := c.Members(ctx)
		if err == nil {
			next := make(map[string]struct{}, len(members))
			for _, member := range members {
				next[member.ID] = struct{}{}
			}
			if known != nil {
				for _, member := range members {
					if _, seen := known[member.ID]; seen {
						continue
					}
					select {
					case c.joins <- directory.JoinEvent{Entity: member}:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
			known = next
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
