package main

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/jlpt-n1-study/internal/config"
	httpapi "github.com/aliskhannn/jlpt-n1-study/internal/delivery/http"
	httpH "github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/handlers"
	httpMW "github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/middleware"
	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/telegram"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/openai"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres/repository"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/redis"
	"github.com/aliskhannn/jlpt-n1-study/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, reminder scheduler and Telegram bot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		return serve(cmd.Context(), cfg, log)
	},
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	dsn, err := cfg.DB.DSN()
	if err != nil {
		return err
	}
	pool, err := postgres.NewPool(ctx, dsn, cfg.DB.Pool())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.NewSchema(pool, log).Check(ctx); err != nil {
		return err
	}

	tr := postgres.NewTransactor(pool)
	stores := service.NewPostgresStores()

	// Optional integrations.
	var (
		cache     service.Cache
		quota     service.Counter
		generator service.Generator
		bot       *tgbotapi.BotAPI
	)

	if cfg.Redis.URL != "" {
		rdb, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		cache, quota = rdb, rdb
	} else {
		log.Warn("REDIS_URL not set, generation cache and quota disabled")
	}

	if cfg.AI.Enabled() {
		client, err := openai.NewClient(cfg.AI.OpenAI, log.Named("openai"))
		if err != nil {
			return err
		}
		generator = client
	} else {
		log.Warn("OPENAI_API_KEY not set, content generation disabled")
	}

	if cfg.Telegram.Enabled() {
		bot, err = tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return fmt.Errorf("init telegram bot: %w", err)
		}
		bot.Debug = cfg.Telegram.Debug
		if _, err := bot.Request(tgbotapi.NewSetMyCommands(telegram.Commands()...)); err != nil {
			log.Warn("failed to set bot commands", zap.Error(err))
		}
		if cfg.Telegram.BotUsername == "" {
			cfg.Telegram.BotUsername = bot.Self.UserName
		}
		log.Info("telegram bot authorized", zap.String("username", bot.Self.UserName))
	} else {
		log.Warn("TELEGRAM_API_TOKEN not set, reminders will not be delivered")
		cfg.Telegram.BotUsername = ""
	}

	// Services.
	settingsService := service.NewSettingsService(repository.NewSettingsRepository(pool))
	userService := service.NewUserService(repository.NewUserRepository(pool), settingsService)
	resetService := service.NewResetService(tr, stores)
	itemService := service.NewItemService(repository.NewItemRepository(pool))
	reviewService := service.NewReviewService(tr, stores, settingsService, cfg.SRS, log.Named("review"))
	flashcardService := service.NewFlashcardService(pool, stores, settingsService, reviewService)
	quizService := service.NewQuizService(pool, tr, stores, settingsService, reviewService, log.Named("quiz"))
	generationService := service.NewGenerationService(
		repository.NewItemRepository(pool),
		repository.NewGenerationRepository(pool),
		generator,
		cache,
		quota,
		cfg.AI.Generation,
		log.Named("generation"),
	)
	progressService := service.NewProgressService(
		repository.NewAnalyticsRepository(pool),
		repository.NewReviewStateRepository(pool),
		settingsService,
	)
	reminderService := service.NewReminderService(
		repository.NewReminderRepository(pool),
		settingsService,
		progressService,
		cfg.Reminders.Schedule,
		log.Named("reminders"),
	)
	linkService := service.NewTelegramLinkService(tr, stores, cfg.Telegram.BotUsername, log.Named("telegram_link"))

	if bot != nil {
		reminderService.SetNotifier(telegram.NewNotifier(bot, cfg.Telegram.AppURL))
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:           log,
		CORSOrigins:      cfg.HTTP.CORSOrigins,
		AuthMiddleware:   httpMW.NewAuthMiddleware(cfg.Auth, userService, log),
		HealthHandler:    httpH.NewHealthHandler(pool),
		UserHandler:      httpH.NewUserHandler(userService, resetService),
		ItemHandler:      httpH.NewItemHandler(itemService, generationService),
		FlashcardHandler: httpH.NewFlashcardHandler(flashcardService),
		QuizHandler:      httpH.NewQuizHandler(quizService),
		ProgressHandler:  httpH.NewProgressHandler(progressService),
		SettingsHandler:  httpH.NewSettingsHandler(settingsService, reminderService, linkService),
	})
	server := httpapi.NewServer(cfg.HTTP, router, log)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return server.Run(ctx) })
	if bot != nil {
		g.Go(func() error { return reminderService.Start(ctx) })
		handler := telegram.NewHandler(bot, log.Named("telegram"), linkService)
		g.Go(func() error { return handler.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
