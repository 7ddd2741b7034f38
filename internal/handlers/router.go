package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"forexsim/internal/config"
	"forexsim/internal/websocket"
)

type Handler struct {
	cfg     config.Config
	users   UserStore
	trading TradingService
	chat    ChatService
	forex   ForexClient
	hub     *websocket.Hub
	log     zerolog.Logger
}

func New(cfg config.Config, users UserStore, trading TradingService, chat ChatService, forexClient ForexClient, hub *websocket.Hub, log zerolog.Logger) *Handler {
	return &Handler{
		cfg:     cfg,
		users:   users,
		trading: trading,
		chat:    chat,
		forex:   forexClient,
		hub:     hub,
		log:     log.With().Str("component", "http").Logger(),
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Post("/users", h.CreateUser)
		r.Get("/users/{id}", h.GetUser)
		r.Get("/users/{id}/portfolio", h.GetPortfolio)
		r.Get("/users/{id}/portfolio/value", h.PortfolioValue)
		r.Post("/users/{id}/portfolio/reset", h.ResetPortfolio)
		r.Post("/users/{id}/trades", h.ExecuteTrade)
		r.Get("/users/{id}/trades", h.ListTrades)
		r.Post("/users/{id}/chat", h.SendChatMessage)
		r.Get("/users/{id}/chat", h.ChatHistory)
		r.Get("/forex/usd-inr", h.CurrentRate)
		r.Get("/forex/chart-data", h.ChartData)
	})
	router.Get("/ws/portfolio", h.WSPortfolio)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
