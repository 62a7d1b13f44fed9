package directory

import "context"

// Client is the engine's view of the member directory. Implementations map
// transport failures onto the services error markers: ErrNotFound for missing
// entities or tags, ErrPermission for rejected mutations, ErrTransient for
// everything retryable.
type Client interface {
	// Entity fetches one member with its full current tag set.
	Entity(ctx context.Context, id string) (Entity, error)
	// Members returns the full membership snapshot.
	Members(ctx context.Context) ([]Entity, error)
	// AddTags assigns tags to an entity in one batch.
	AddTags(ctx context.Context, id string, tagIDs []string) error
	// RemoveTags removes tags from an entity in one batch.
	RemoveTags(ctx context.Context, id string, tagIDs []string) error
	// Tag returns tag metadata, served from a TTL cache.
	Tag(ctx context.Context, tagID string) (Tag, error)
	// ActorRank returns the acting identity's rank, served from a TTL cache.
	ActorRank(ctx context.Context) (int, error)
	// Joins exposes membership join events.
	Joins() <-chan JoinEvent
	// Run drives background polling until the context is canceled.
	Run(ctx context.Context) error
}
