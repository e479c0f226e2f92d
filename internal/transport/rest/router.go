package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"qrhunt/internal/service"
	"qrhunt/internal/transport/rest/handler"
	"qrhunt/internal/transport/rest/middleware"
	"qrhunt/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService        *service.AuthService
	GameService        *service.GameService
	CheckpointService  *service.CheckpointService
	LeaderboardService *service.LeaderboardService
	AdminService       *service.AdminService
	WSHub              *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	gameHandler := handler.NewGameHandler(c.GameService)
	qrHandler := handler.NewQRHandler(c.GameService)
	checkpointHandler := handler.NewCheckpointHandler(c.CheckpointService)
	leaderboardHandler := handler.NewLeaderboardHandler(c.LeaderboardService)
	adminHandler := handler.NewAdminHandler(c.AdminService, c.CheckpointService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/leaderboard", leaderboardHandler.Get).Methods("GET", "OPTIONS")

	// WebSocket route (admin token in query param)
	api.HandleFunc("/ws/dashboard", wsHandler.DashboardWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Team routes (require team auth)
	teamRoutes := api.NewRoute().Subrouter()
	teamRoutes.Use(authMW.RequireTeam)

	teamRoutes.HandleFunc("/game/question/{questionNumber}", gameHandler.GetQuestion).Methods("POST", "OPTIONS")
	teamRoutes.HandleFunc("/game/submit-answer", gameHandler.SubmitAnswer).Methods("POST", "OPTIONS")
	teamRoutes.HandleFunc("/game/progress", gameHandler.Progress).Methods("GET", "OPTIONS")
	teamRoutes.HandleFunc("/game/team", gameHandler.TeamInfo).Methods("GET", "OPTIONS")
	teamRoutes.HandleFunc("/qr/resolve/{token}", qrHandler.Resolve).Methods("POST", "OPTIONS")
	teamRoutes.HandleFunc("/checkpoint/scan/{checkpointNumber}", checkpointHandler.Scan).Methods("POST", "OPTIONS")

	// Admin routes (require admin role)
	adminRoutes := api.NewRoute().Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/checkpoint/pause/{teamId}", checkpointHandler.Pause).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/checkpoint/unpause/{teamId}", checkpointHandler.Unpause).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/checkpoint/unpause-all", checkpointHandler.UnpauseAll).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/admin/questions", adminHandler.ListQuestions).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/admin/questions", adminHandler.UpsertQuestion).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/admin/questions/{questionNumber}", adminHandler.DeleteQuestion).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/admin/teams", adminHandler.ListTeams).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/admin/teams/{teamId}/reset", adminHandler.ResetTeam).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/admin/qr/current/{questionNumber}", adminHandler.CurrentQRToken).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
