package config

import (
	"os"

	"github.com/stake-plus/link-curator/src/shared/data"
	"gorm.io/gorm"
)

type Config struct {
	Token         string
	ApplicationID string
	GuildID       string
	MySQLDSN      string
	RedisURL      string
}

// Load reads configuration from the settings table with environment
// fallbacks. LoadSettings must have run against db already.
func Load(db *gorm.DB) Config {
	return Config{
		Token:         fromSettings("discord_token", "DISCORD_TOKEN"),
		ApplicationID: fromSettings("application_id", "APPLICATION_ID"),
		GuildID:       fromSettings("guild_id", "GUILD_ID"),
		MySQLDSN:      GetMySQLDSN(),
		RedisURL:      getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
	}
}

func GetMySQLDSN() string {
	return getenv("MYSQL_DSN", "curator:curator@tcp(127.0.0.1:3306)/curator")
}

func fromSettings(setting, env string) string {
	if v := data.GetSetting(setting); v != "" {
		return v
	}
	return os.Getenv(env)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
