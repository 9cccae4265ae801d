// Package main is the entry point for the real-time chess backend server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rtchess/backend/internal/config"
	"github.com/rtchess/backend/internal/handlers"
	custommiddleware "github.com/rtchess/backend/internal/middleware"
	"github.com/rtchess/backend/internal/repository"
	"github.com/rtchess/backend/internal/services"
	"github.com/rtchess/backend/internal/session"
	"github.com/rtchess/backend/internal/transport"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("APP_ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Info().Msg("Starting rtchess backend server")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("env", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("Configuration loaded")

	db, err := repository.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	redisClient, err := repository.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	userRepo := repository.NewUserRepository(db)
	gameRepo := repository.NewGameRepository(db)
	boardRepo := repository.NewCustomBoardRepository(db)
	friendRepo := repository.NewFriendshipRepository(db)

	userService := services.NewUserService(userRepo)

	hub := transport.NewHub()
	gameManager := session.NewGameManager(gameRepo, userRepo, transport.GameStateHandler(hub))
	roomManager := session.NewRoomManager(gameManager, gameRepo)
	matchmakingManager := session.NewMatchmakingManager(gameManager, redisClient.Client())

	matchmakingManager.OnMatchFound(func(ctx context.Context, gameID, whiteID, blackID string) {
		data, err := transport.Encode(transport.OutboundMatchFound, transport.MatchFoundPayload{GameID: gameID})
		if err != nil {
			log.Error().Err(err).Msg("encode matchFound")
			return
		}
		hub.SendToUser(whiteID, data)
		hub.SendToUser(blackID, data)

		if err := gameManager.StartGame(ctx, gameID); err != nil {
			log.Error().Err(err).Str("game_id", gameID).Msg("auto-start matched game")
			return
		}
		hub.FlushGameState(gameID)
	})

	ctx, cancelLoops := context.WithCancel(context.Background())
	gameManager.StartPeriodicLoop(ctx)
	roomManager.StartSweepLoop(ctx)
	matchmakingManager.StartMatchLoop(ctx)

	userHandler := handlers.NewUserHandler(userService)
	boardHandler := handlers.NewCustomBoardHandler(boardRepo)
	friendHandler := handlers.NewFriendshipHandler(friendRepo)
	wsHandler := handlers.NewWebSocketHandler(hub, gameManager, roomManager, matchmakingManager, userRepo)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
			next.ServeHTTP(w, r)
		})
	})

	allowedOrigins := append([]string{}, cfg.Server.AllowedOrigins...)
	if cfg.Server.Environment == "development" || cfg.Server.Environment == "" {
		allowedOrigins = append(allowedOrigins,
			"http://localhost:3000",
			"http://localhost:8080",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:8080",
		)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID", "X-App-Version"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(custommiddleware.UserAuth)
		r.Use(custommiddleware.RateLimiter(100))

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Get("/{userId}", userHandler.GetProfile)
			r.Patch("/{userId}", userHandler.UpdateProfile)
		})

		r.Route("/boards", func(r chi.Router) {
			r.Post("/", boardHandler.CreateCustomBoard)
			r.Get("/{boardId}", boardHandler.GetCustomBoard)
			r.Patch("/{boardId}", boardHandler.UpdateCustomBoard)
			r.Delete("/{boardId}", boardHandler.DeleteCustomBoard)
		})

		r.Route("/friends", func(r chi.Router) {
			r.Post("/", friendHandler.AddFriend)
			r.Get("/{friendId}", friendHandler.CheckFriend)
			r.Delete("/{friendId}", friendHandler.RemoveFriend)
		})
	})

	// WebSocket route (outside the /api/v1 group, same auth middleware).
	r.Group(func(r chi.Router) {
		r.Use(custommiddleware.UserAuth)
		r.Get("/ws", wsHandler.HandleConnection)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Msgf("Server listening on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	cancelLoops()
	gameManager.Stop()
	matchmakingManager.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
