package config

import (
	"fmt"
	"strings"

	"rostersync/internal/services"
)

// Validate checks configuration invariants. Errors carry the configuration
// marker so callers can treat them as fatal.
func (c *Config) Validate() error {
	var problems []string

	if c.Directory.BaseURL == "" {
		problems = append(problems, "directory.base_url is required")
	}
	if c.Directory.Token == "" {
		problems = append(problems, "directory.token is required (set ROSTERSYNC_DIRECTORY_TOKEN or edit the config file)")
	}
	if c.Directory.ActorID == "" {
		problems = append(problems, "directory.actor_id is required")
	}
	if c.Directory.RequestTimeoutSeconds <= 0 {
		problems = append(problems, "directory.request_timeout_seconds must be positive")
	}
	if c.Directory.TagTTLSeconds <= 0 {
		problems = append(problems, "directory.tag_ttl_seconds must be positive")
	}
	if c.Directory.JoinPollSeconds <= 0 {
		problems = append(problems, "directory.join_poll_seconds must be positive")
	}
	if c.Store.PollIntervalSeconds <= 0 {
		problems = append(problems, "store.poll_interval_seconds must be positive")
	}
	if c.Scheduler.DebounceMS <= 0 {
		problems = append(problems, "scheduler.debounce_ms must be positive")
	}
	if c.Audit.IntervalMinutes <= 0 {
		problems = append(problems, "audit.interval_minutes must be positive")
	}
	if c.Audit.SampleSize <= 0 {
		problems = append(problems, "audit.sample_size must be positive")
	}
	if c.Paths.DataDir == "" {
		problems = append(problems, "paths.data_dir is required")
	}
	if c.Paths.LogDir == "" {
		problems = append(problems, "paths.log_dir is required")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (use console or json)", c.Logging.Format))
	}
	if c.Catalog.BaselineTag == "" {
		problems = append(problems, "catalog.baseline_tag is required")
	}
	if c.Catalog.CaptainTag == "" {
		problems = append(problems, "catalog.captain_tag is required")
	}
	problems = append(problems, c.catalogProblems()...)

	if len(problems) > 0 {
		return services.Wrap(services.ErrConfiguration, "config", "validate", strings.Join(problems, "; "), nil)
	}
	return nil
}

// catalogProblems reports catalog mappings that would make tag ownership
// ambiguous: the same tag id bound to more than one category value, or an
// alias pointing at an unmapped position.
func (c *Config) catalogProblems() []string {
	var problems []string

	owners := map[string]string{}
	claim := func(tag, owner string) {
		if tag == "" {
			return
		}
		if prev, ok := owners[tag]; ok {
			problems = append(problems, fmt.Sprintf("tag %q is mapped by both %s and %s", tag, prev, owner))
			return
		}
		owners[tag] = owner
	}

	claim(c.Catalog.BaselineTag, "catalog.baseline_tag")
	claim(c.Catalog.CaptainTag, "catalog.captain_tag")
	for value, tag := range c.Catalog.Tiers {
		claim(tag, "catalog.tiers."+value)
	}
	for value, tag := range c.Catalog.Positions {
		claim(tag, "catalog.positions."+value)
	}
	for value, tag := range c.Catalog.Squads {
		claim(tag, "catalog.squads."+value)
	}

	for alias, target := range c.Catalog.PositionAliases {
		if _, ok := c.Catalog.Positions[target]; !ok {
			problems = append(problems, fmt.Sprintf("catalog.position_aliases.%s points at unmapped position %q", alias, target))
		}
	}

	return problems
}
