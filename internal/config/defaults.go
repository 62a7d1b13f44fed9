package config

const (
	defaultDataDir              = "~/.local/share/rostersync/data"
	defaultLogDir               = "~/.local/share/rostersync/logs"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 60
	defaultStorePollSeconds     = 2
	defaultDirectoryTimeout     = 10
	defaultTagTTLSeconds        = 60
	defaultJoinPollSeconds      = 15
	defaultDebounceMS           = 500
	defaultAuditIntervalMinutes = 5
	defaultAuditSampleSize      = 10
	defaultNtfyServer           = "https://ntfy.sh"
	defaultNotifyTimeout        = 10
	defaultBaselineTag          = "role-PLAYER"
	defaultCaptainTag           = "role-CAPTAIN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Store: Store{
			PollIntervalSeconds: defaultStorePollSeconds,
		},
		Directory: Directory{
			RequestTimeoutSeconds: defaultDirectoryTimeout,
			TagTTLSeconds:         defaultTagTTLSeconds,
			JoinPollSeconds:       defaultJoinPollSeconds,
		},
		Scheduler: Scheduler{
			DebounceMS: defaultDebounceMS,
		},
		Audit: Audit{
			IntervalMinutes: defaultAuditIntervalMinutes,
			SampleSize:      defaultAuditSampleSize,
		},
		Notifications: Notifications{
			NtfyServer:            defaultNtfyServer,
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Catalog: Catalog{
			BaselineTag: defaultBaselineTag,
			CaptainTag:  defaultCaptainTag,
			Tiers: map[string]string{
				"T1": "role-T1",
				"T2": "role-T2",
				"T3": "role-T3",
			},
			Positions: map[string]string{
				"TOP": "role-TOP",
				"JGL": "role-JGL",
				"MID": "role-MID",
				"BOT": "role-BOT",
				"SUP": "role-SUP",
			},
			Squads: map[string]string{
				"MAIN":    "squad-MAIN",
				"ACADEMY": "squad-ACADEMY",
			},
			PositionAliases: map[string]string{
				"JUNGLE":  "JGL",
				"JG":      "JGL",
				"SUPPORT": "SUP",
				"SUPP":    "SUP",
				"BOTTOM":  "BOT",
				"ADC":     "BOT",
			},
		},
	}
}
