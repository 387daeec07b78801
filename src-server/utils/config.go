package utils

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dayplan/src-server/reminder"
)

type Config struct {
	port         string
	databasePath string
	location     *time.Location
	logLevel     slog.Level

	debugRoutes     bool
	apiToken        string
	serializeWrites bool

	notificationsEnabled bool
	reminderMinLead      time.Duration
	reminderChannelID    string
	dispatchSpec         string

	metricCollectionInterval time.Duration

	discordAppToken  string
	discordChannelID string
	snsTopicARN      string
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),
		databasePath: func() string {
			databasePath := os.Getenv("DATABASE_PATH")
			if databasePath == "" {
				databasePath = "./dayplan.db"
			}
			slog.Debug("env", "DATABASE_PATH", databasePath)
			return filepath.Clean(databasePath)
		}(),
		location: func() *time.Location {
			timezoneStr := os.Getenv("TIMEZONE")
			var loc *time.Location
			var err error
			switch timezoneStr {
			case "":
				slog.Warn("TIMEZONE is not set, using local timezone", "timezone", time.Local)
				loc = time.Local
			case "UTC":
				loc = time.UTC
			default:
				loc, err = time.LoadLocation(timezoneStr)
				if err != nil {
					slog.Error("invalid timezone", "timezone", timezoneStr, "error", err)
					os.Exit(1)
				}
			}
			slog.Debug("env", "TIMEZONE", timezoneStr)
			return loc
		}(),
		logLevel: ParseLogLevel(os.Getenv("LOG_LEVEL")),

		debugRoutes: envBool("DEBUG_ROUTES", false),
		apiToken: func() string {
			apiToken := os.Getenv("API_TOKEN")
			if apiToken == "" {
				slog.Warn("API_TOKEN is not set, the HTTP API is open")
				return ""
			}
			slog.Debug("env", "API_TOKEN", mask(apiToken))
			return apiToken
		}(),

		serializeWrites: envBool("SERIALIZE_WRITES", false),

		notificationsEnabled: envBool("NOTIFICATIONS_ENABLED", true),
		reminderMinLead: func() time.Duration {
			minLead := envDuration("REMINDER_MIN_LEAD", reminder.DefaultMinLead)
			if minLead < time.Second {
				slog.Warn("REMINDER_MIN_LEAD is under one second, using one second", "value", minLead)
				minLead = time.Second
			}
			return minLead
		}(),
		reminderChannelID: func() string {
			channelID := os.Getenv("REMINDER_CHANNEL_ID")
			if channelID == "" {
				channelID = reminder.DefaultChannel.ID
			}
			slog.Debug("env", "REMINDER_CHANNEL_ID", channelID)
			return channelID
		}(),
		dispatchSpec: func() string {
			spec := os.Getenv("DISPATCH_SPEC")
			if spec == "" {
				spec = "@every 15s"
			}
			slog.Debug("env", "DISPATCH_SPEC", spec)
			return spec
		}(),

		metricCollectionInterval: envDuration("METRIC_COLLECTION_INTERVAL", 15*time.Second),

		discordAppToken: func() string {
			discordAppToken := os.Getenv("DISCORD_APP_TOKEN")
			if discordAppToken == "" {
				slog.Info("DISCORD_APP_TOKEN is not set, Discord is disabled")
				return ""
			}
			slog.Debug("env", "DISCORD_APP_TOKEN", mask(discordAppToken))
			return discordAppToken
		}(),
		discordChannelID: func() string {
			discordChannelID := os.Getenv("DISCORD_CHANNEL_ID")
			slog.Debug("env", "DISCORD_CHANNEL_ID", discordChannelID)
			return discordChannelID
		}(),
		snsTopicARN: func() string {
			snsTopicARN := os.Getenv("SNS_TOPIC_ARN")
			slog.Debug("env", "SNS_TOPIC_ARN", snsTopicARN)
			return snsTopicARN
		}(),
	}
}

// ParseLogLevel maps LOG_LEVEL onto a slog level, defaulting to debug.
func ParseLogLevel(s string) slog.Level {
	var level slog.Level
	if s == "" {
		return slog.LevelDebug
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		slog.Warn("invalid LOG_LEVEL, using debug", "value", s)
		return slog.LevelDebug
	}
	return level
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		slog.Debug("env", key, fallback)
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Error("invalid "+key, "value", raw, "error", err)
		os.Exit(1)
	}
	slog.Debug("env", key, value)
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		slog.Debug("env", key, fallback)
		return fallback
	}
	duration, err := time.ParseDuration(raw)
	if err != nil {
		slog.Error("invalid "+key, "value", raw, "error", err)
		os.Exit(1)
	}
	slog.Debug("env", key, duration)
	return duration
}

func mask(secret string) string {
	if len(secret) <= 3 {
		return "..."
	}
	return secret[0:3] + "..."
}

// Get PORT env, default to 8080
func (c *Config) GetPort() string {
	return c.port
}

// Get DATABASE_PATH env, default to ./dayplan.db
func (c *Config) GetDatabasePath() string {
	return c.databasePath
}

// Get TIMEZONE env
func (c *Config) GetLocation() *time.Location {
	return c.location
}

// Get LOG_LEVEL env
func (c *Config) GetLogLevel() slog.Level {
	return c.logLevel
}

// Get DEBUG_ROUTES env
func (c *Config) GetDebugRoutes() bool {
	return c.debugRoutes
}

// Get API_TOKEN env, empty means no auth
func (c *Config) GetAPIToken() string {
	return c.apiToken
}

// Get SERIALIZE_WRITES env, default to last-write-wins
func (c *Config) GetSerializeWrites() bool {
	return c.serializeWrites
}

// Get NOTIFICATIONS_ENABLED env
func (c *Config) GetNotificationsEnabled() bool {
	return c.notificationsEnabled
}

// Get REMINDER_MIN_LEAD env
func (c *Config) GetReminderMinLead() time.Duration {
	return c.reminderMinLead
}

// Get REMINDER_CHANNEL_ID env
func (c *Config) GetReminderChannelID() string {
	return c.reminderChannelID
}

// Get DISPATCH_SPEC env
func (c *Config) GetDispatchSpec() string {
	return c.dispatchSpec
}

// Get METRIC_COLLECTION_INTERVAL env
func (c *Config) GetMetricCollectionInterval() time.Duration {
	return c.metricCollectionInterval
}

// Get DISCORD_APP_TOKEN env
func (c *Config) GetDiscordAppToken() string {
	return c.discordAppToken
}

// Get DISCORD_CHANNEL_ID env
func (c *Config) GetDiscordChannelID() string {
	return c.discordChannelID
}

// Get SNS_TOPIC_ARN env
func (c *Config) GetSNSTopicARN() string {
	return c.snsTopicARN
}
