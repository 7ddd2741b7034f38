package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"forexsim/internal/assistant"
	"forexsim/internal/config"
	"forexsim/internal/db"
	"forexsim/internal/forex"
	"forexsim/internal/handlers"
	"forexsim/internal/services"
	"forexsim/internal/store"
	"forexsim/internal/websocket"
)

func main() {
	cfg := config.Load()
	log := newLogger(cfg.AppEnv)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	defer database.Close()

	users := store.NewUserStore(database)
	portfolios := store.NewPortfolioStore(database)
	trades := store.NewTradeStore(database)
	chats := store.NewChatStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	rates := forex.NewClient(cfg.AlphaVantageURL, cfg.AlphaVantageKey, cfg.RateTimeout, cfg.RateCacheTTL, log)

	var assistantClient services.AssistantClient
	if gemini, err := assistant.NewClient(context.Background(), cfg.GeminiModel, log); err != nil {
		log.Warn().Err(err).Msg("assistant unavailable, chat will use fallback replies")
	} else {
		assistantClient = gemini
	}

	trading := services.NewTradingService(txRunner, portfolios, trades, rates, hub, log)
	chat := services.NewChatService(chats, assistantClient, rates, cfg.AssistantTimeout, log)

	ticker := forex.NewTicker(rates, hub, log)
	if err := ticker.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start rate ticker")
	}
	defer ticker.Stop()

	handler := handlers.New(cfg, users, trading, chat, rates, hub, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("trading API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("shutdown error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
