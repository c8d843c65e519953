package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"dinner-planner/internal/clipper"
	"dinner-planner/internal/config"
	"dinner-planner/internal/database"
	"dinner-planner/internal/history"
	"dinner-planner/internal/llm"
	"dinner-planner/internal/metrics"
	"dinner-planner/internal/planner"
	"dinner-planner/internal/recipe"
	"dinner-planner/internal/shopping"
	"dinner-planner/internal/swap"
	"dinner-planner/internal/telegram"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const metricsRetentionDays = 90

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.TelegramBotToken == "" || cfg.TelegramWebhookURL == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN and TELEGRAM_WEBHOOK_URL must be set")
	}

	ctx := context.Background()

	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	var textGen llm.TextGenerator
	if cfg.GeminiAPIKey != "" {
		gen, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create gemini client")
		}
		if closer, ok := gen.(llm.Closer); ok {
			defer closer.Close()
		}
		textGen = gen
	} else {
		textGen = llm.NewGroqClient(cfg.GroqAPIKey)
	}

	recipeRepo, err := recipe.NewRepository(db.SQL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create recipe repository")
	}

	metricsStore := metrics.NewStore(db.SQL)
	if err := metricsStore.Cleanup(ctx, metricsRetentionDays); err != nil {
		log.Warn().Err(err).Msg("failed to prune old execution metrics")
	}

	bot, err := telegram.NewBot(
		cfg,
		planner.NewService(recipeRepo, textGen),
		swap.NewMatcher(textGen),
		clipper.NewClipper(textGen, recipeRepo),
		recipeRepo,
		planner.NewPlanRepository(db.SQL),
		shopping.NewRepository(db.SQL),
		history.NewRepository(db.SQL),
		metricsStore,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init bot")
	}

	bot.RegisterHandlers()

	log.Info().Str("addr", cfg.ListenAddr).Msg("listening for webhooks")
	if err := http.ListenAndServe(cfg.ListenAddr, nil); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}
