package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ayush/gyancoder/backend/internal/auth"
	"github.com/ayush/gyancoder/backend/internal/chat"
	"github.com/ayush/gyancoder/backend/internal/config"
	"github.com/ayush/gyancoder/backend/internal/logging"
	"github.com/ayush/gyancoder/backend/internal/middleware"
	"github.com/ayush/gyancoder/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.Init(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// ── Redis (sessions) ─────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb)

	// ── File stores ──────────────────────────────────────────
	creds := store.NewCredentialStore(cfg.Auth.UsersFile)
	transcripts := store.NewTranscriptStore(cfg.Chat.HistoryDir, logger)

	// ── LLM client and chat sessions ─────────────────────────
	llm := chat.NewLLMClient(cfg.LLM)
	registry := chat.NewRegistry(transcripts, llm, cfg.LLM.SystemPrompt, logger)

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(creds, sessions)
	chatHandler := chat.NewHandler(registry, transcripts)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Post("/reset-password", authHandler.ResetPassword)
		r.With(middleware.RequireAuth(sessions)).Get("/me", authHandler.Me)
	})

	// Chat routes (protected)
	r.Route("/api/chat", func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Post("/message", chatHandler.SendMessage)
		r.Post("/new", chatHandler.NewChat)
		r.Get("/history", chatHandler.ListHistory)
		r.Get("/history/{filename}", chatHandler.LoadHistory)
		r.Delete("/history/{filename}", chatHandler.DeleteHistory)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		logger.Info("backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
