package httpdir

import (
	"sync"
	"time"

	"rostersync/internal/directory"
)

// metaCache holds tag metadata and the actor rank with a shared TTL so
// capability checks at apply time do not cost a request per tag. Entries are
// never served past the TTL.
type metaCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	tags      map[string]cachedTag
	rank      int
	rankSetAt time.Time
}

type cachedTag struct {
	tag   directory.Tag
	setAt time.Time
}

func newMetaCache(ttl time.Duration) *metaCache {
	return &metaCache{
		ttl:  ttl,
		tags: make(map[string]cachedTag),
	}
}

func (m *metaCache) tag(id string) (directory.Tag, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.tags[id]
	if !ok || time.Since(entry.setAt) > m.ttl {
		return directory.Tag{}, false
	}
	return entry.tag, true
}

func (m *metaCache) putTag(tag directory.Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[tag.ID] = cachedTag{tag: tag, setAt: time.Now()}
}

func (m *metaCache) actorRank() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rankSetAt.IsZero() || time.Since(m.rankSetAt) > m.ttl {
		return 0, false
	}
	return m.rank, true
}

func (m *metaCache) putActorRank(rank int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rank = rank
	m.rankSetAt = time.Now()
}
