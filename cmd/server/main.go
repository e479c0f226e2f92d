package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"qrhunt/internal/cache"
	"qrhunt/internal/config"
	"qrhunt/internal/model"
	"qrhunt/internal/qrtoken"
	"qrhunt/internal/repository"
	"qrhunt/internal/service"
	"qrhunt/internal/transport/rest"
	"qrhunt/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	// Load .env if present, without overwriting already-set variables.
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	cfg := config.Load()
	if cfg.AdminInviteKey == "" {
		log.Println("Warning: ADMIN_INVITE_KEY not set, admin registration disabled")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDatabase)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	teamRepo := repository.NewTeamRepo(db)
	questionRepo := repository.NewQuestionRepo(db)

	// Initialize caches
	questionCache := cache.NewQuestionCache(rdb)
	leaderboardCache := cache.NewLeaderboardCache(rdb)

	// Token codec and checkpoint plan
	codec := qrtoken.New(cfg.QRTokenSecret)
	plan := model.DefaultCheckpointPlan()

	// Initialize services
	authSvc := service.NewAuthService(teamRepo, cfg.JWTSecret, cfg.AdminInviteKey)
	gameSvc := service.NewGameService(teamRepo, questionRepo, questionCache, leaderboardCache, codec, plan)
	checkpointSvc := service.NewCheckpointService(teamRepo, plan, leaderboardCache)
	leaderboardSvc := service.NewLeaderboardService(teamRepo, leaderboardCache)
	adminSvc := service.NewAdminService(teamRepo, questionRepo, questionCache, codec)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	gameSvc.SetBroadcaster(wsHub)
	checkpointSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:        authSvc,
		GameService:        gameSvc,
		CheckpointService:  checkpointSvc,
		LeaderboardService: leaderboardSvc,
		AdminService:       adminSvc,
		WSHub:              wsHub,
	}

	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /api/auth/register")
		log.Println("  POST /api/auth/login")
		log.Println("  POST /api/game/submit-answer")
		log.Println("  POST /api/qr/resolve/{token}")
		log.Println("  POST /api/checkpoint/scan/{checkpointNumber}")
		log.Println("  GET  /api/leaderboard")
		log.Println("  WS   /api/ws/dashboard")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
