package catalog

import (
	"sort"
	"strings"

	"rostersync/internal/config"
	"rostersync/internal/services"
)

// Catalog is the immutable set of tags rostersync is permitted to manage,
// together with the category-value lookups used to compute desired state.
// Tags outside the catalog are invisible to the engine.
type Catalog struct {
	baseline  string
	captain   string
	tiers     map[string]string
	positions map[string]string
	squads    map[string]string
	aliases   map[string]string
	managed   map[string]struct{}
}

// New builds a Catalog from configuration. Config validation already rejects
// duplicate tag ownership, so construction cannot fail after a valid load;
// the error return guards direct construction in tests and tools.
func New(cfg config.Catalog) (*Catalog, error) {
	c := &Catalog{
		baseline:  cfg.BaselineTag,
		captain:   cfg.CaptainTag,
		tiers:     copyMap(cfg.Tiers),
		positions: copyMap(cfg.Positions),
		squads:    copyMap(cfg.Squads),
		aliases:   copyMap(cfg.PositionAliases),
		managed:   map[string]struct{}{},
	}

	claim := func(tag string) error {
		if tag == "" {
			return nil
		}
		if _, dup := c.managed[tag]; dup {
			return services.Wrap(services.ErrConfiguration, "catalog", "build", "tag "+tag+" mapped more than once", nil)
		}
		c.managed[tag] = struct{}{}
		return nil
	}

	if err := claim(c.baseline); err != nil {
		return nil, err
	}
	if err := claim(c.captain); err != nil {
		return nil, err
	}
	for _, m := range []map[string]string{c.tiers, c.positions, c.squads} {
		for _, tag := range m {
			if err := claim(tag); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// BaselineTag returns the tag every synchronized entity carries.
func (c *Catalog) BaselineTag() string { return c.baseline }

// CaptainTag returns the tag marking squad captains.
func (c *Catalog) CaptainTag() string { return c.captain }

// TierTag maps a tier value to its tag. ok is false for unrecognized tiers.
func (c *Catalog) TierTag(tier string) (string, bool) {
	tag, ok := c.tiers[canon(tier)]
	return tag, ok
}

// PositionTag maps a position value to its tag, folding configured aliases
// first. ok is false for unrecognized positions.
func (c *Catalog) PositionTag(position string) (string, bool) {
	key := canon(position)
	if target, aliased := c.aliases[key]; aliased {
		key = target
	}
	tag, ok := c.positions[key]
	return tag, ok
}

// SquadTag maps a squad value to its tag. ok is false for unrecognized squads.
func (c *Catalog) SquadTag(squad string) (string, bool) {
	tag, ok := c.squads[canon(squad)]
	return tag, ok
}

// IsManaged reports whether a tag id belongs to the catalog.
func (c *Catalog) IsManaged(tag string) bool {
	_, ok := c.managed[tag]
	return ok
}

// ManagedIDs returns every catalog tag id, sorted.
func (c *Catalog) ManagedIDs() []string {
	ids := make([]string, 0, len(c.managed))
	for tag := range c.managed {
		ids = append(ids, tag)
	}
	sort.Strings(ids)
	return ids
}

// Intersect returns the subset of tags that are catalog-managed, preserving
// input order.
func (c *Catalog) Intersect(tags []string) []string {
	var out []string
	for _, tag := range tags {
		if c.IsManaged(tag) {
			out = append(out, tag)
		}
	}
	return out
}

func canon(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
