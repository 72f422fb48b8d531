package config

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	TelegramToken    string        `mapstructure:"telegram_token"`
	BotHandleTimeout time.Duration `mapstructure:"bot_handle_timeout"`
	NotifyTimeout    time.Duration `mapstructure:"notify_timeout"`

	AdminEntryPhrase string  `mapstructure:"admin_entry_phrase"`
	AdminPassword    string  `mapstructure:"admin_password"`
	AdminIDs         []int64 `mapstructure:"admin_ids"`

	ParticipantsChatLink string `mapstructure:"participants_chat_link"`
	FindTeamChatLink     string `mapstructure:"find_team_chat_link"`
	OrganizerContact     string `mapstructure:"organizer_contact"`
	AssetsPath           string `mapstructure:"assets_path"`

	APIListenAddr string `mapstructure:"api_listen_addr"`
	APIToken      string `mapstructure:"api_token"`

	PostgresDSN string `mapstructure:"postgres_dsn"`
}

func New() *Config {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		logrus.Fatalf("unmarshalling config: %v", err)
	}
	return cfg
}

func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func SetupCommon() {
	viper.SetDefault("assets_path", "assets")
	viper.SetDefault("api_listen_addr", ":8080")
	viper.SetEnvPrefix("CTFBOT")

	viper.MustBindEnv("telegram_token")
	viper.MustBindEnv("admin_entry_phrase")
	viper.MustBindEnv("admin_password")
	viper.MustBindEnv("postgres_dsn")
	viper.AutomaticEnv()
}
