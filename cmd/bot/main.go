package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/best-lviv/ctf-bot/internal/bot"
	"github.com/best-lviv/ctf-bot/internal/broadcast"
	"github.com/best-lviv/ctf-bot/internal/config"
	"github.com/best-lviv/ctf-bot/internal/fsm"
	"github.com/best-lviv/ctf-bot/internal/gate"
	"github.com/best-lviv/ctf-bot/internal/logging"
	"github.com/best-lviv/ctf-bot/internal/notify"
	"github.com/best-lviv/ctf-bot/internal/session"
	"github.com/best-lviv/ctf-bot/internal/storage"
	"github.com/best-lviv/ctf-bot/internal/teamsvc"
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

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	store := storage.New(db)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	migrateCtx, migrateCancel := context.WithTimeout(ctx, 10*time.Second)
	defer migrateCancel()

	if err := store.Migrate(migrateCtx); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	tb, err := telebot.NewBot(telebot.Settings{
		Token: cfg.TelegramToken,
		Poller: &telebot.LongPoller{
			Timeout:        10 * time.Second,
			AllowedUpdates: []string{"message"},
		},
	})
	if err != nil {
		logrus.Fatalf("Failed to create bot: %v", err)
	}

	notifier := notify.NewTelegram(tb)
	teams := teamsvc.New(store, notifier, cfg.NotifyTimeout, cfg.OrganizerContact)
	g := gate.New(store)
	dispatcher := broadcast.New(store, notifier, cfg.NotifyTimeout)
	engine := fsm.NewEngine(store)

	b := bot.New(cfg, store, session.NewStore(), engine, teams, g, dispatcher, tb)
	b.Register(tb)

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		tb.Start()
	}()

	<-ctx.Done()

	tb.Stop()

	logrus.Info("waiting for services to finish")
	wg.Wait()
}

func setupConfig() {
	viper.SetDefault("bot_handle_timeout", "10s")
	viper.SetDefault("notify_timeout", "10s")
	config.SetupCommon()
}
