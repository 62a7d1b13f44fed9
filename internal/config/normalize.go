package config

import (
	"os"
	"strings"
)

// normalize expands paths, applies environment overrides, and canonicalizes
// catalog keys. It runs after decode and before Validate.
func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	if token := strings.TrimSpace(os.Getenv("ROSTERSYNC_DIRECTORY_TOKEN")); token != "" {
		c.Directory.Token = token
	}
	if topic := strings.TrimSpace(os.Getenv("ROSTERSYNC_NTFY_TOPIC")); topic != "" {
		c.Notifications.NtfyTopic = topic
	}

	c.Directory.BaseURL = strings.TrimRight(strings.TrimSpace(c.Directory.BaseURL), "/")
	c.Directory.Token = strings.TrimSpace(c.Directory.Token)
	c.Directory.ActorID = strings.TrimSpace(c.Directory.ActorID)

	c.Notifications.NtfyServer = strings.TrimRight(strings.TrimSpace(c.Notifications.NtfyServer), "/")
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	c.Catalog.Tiers = upperKeys(c.Catalog.Tiers)
	c.Catalog.Positions = upperKeys(c.Catalog.Positions)
	c.Catalog.Squads = upperKeys(c.Catalog.Squads)

	aliases := make(map[string]string, len(c.Catalog.PositionAliases))
	for key, value := range c.Catalog.PositionAliases {
		aliases[strings.ToUpper(strings.TrimSpace(key))] = strings.ToUpper(strings.TrimSpace(value))
	}
	c.Catalog.PositionAliases = aliases

	return nil
}

func upperKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return out
}
