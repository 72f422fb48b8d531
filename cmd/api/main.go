package main

import (
	"context"
	"time"

	"github.com/best-lviv/ctf-bot/internal/api"
	"github.com/best-lviv/ctf-bot/internal/broadcast"
	"github.com/best-lviv/ctf-bot/internal/config"
	"github.com/best-lviv/ctf-bot/internal/gate"
	"github.com/best-lviv/ctf-bot/internal/logging"
	"github.com/best-lviv/ctf-bot/internal/notify"
	"github.com/best-lviv/ctf-bot/internal/storage"
	"github.com/best-lviv/ctf-bot/internal/teamsvc"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/telebot.v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	setupConfig()
	logging.Init()

	cfg := config.New()
	logrus.Debugf("config: %+v", cfg)

	tb, err := telebot.NewBot(telebot.Settings{
		Token: cfg.TelegramToken,
		Poller: &telebot.LongPoller{
			Timeout: 10 * time.Second,
		},
	})
	if err != nil {
		logrus.Fatalf("Failed to create bot: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	store := storage.New(db)

	migrateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Migrate(migrateCtx); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	notifier := notify.NewTelegram(tb)
	teams := teamsvc.New(store, notifier, cfg.NotifyTimeout, cfg.OrganizerContact)
	dispatcher := broadcast.New(store, notifier, cfg.NotifyTimeout)

	service := api.NewService(cfg, teams, gate.New(store), dispatcher)
	e := echo.New()
	service.Register(e)
	if err := e.Start(cfg.APIListenAddr); err != nil {
		logrus.Fatalf("API server stopped: %v", err)
	}
}

func setupConfig() {
	viper.SetDefault("notify_timeout", "10s")
	viper.MustBindEnv("api_token")
	config.SetupCommon()
}
