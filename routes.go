package main

import (
	"context"
	"net/http"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"snapChallengeAPI/handlers"
	"snapChallengeAPI/internal/config"
	"snapChallengeAPI/middleware"
	"snapChallengeAPI/services"
)

const badgeQueueSize = 1000

// appDB is the pool as seen by the HTTP layer.
type appDB interface {
	services.DB
	Ping(ctx context.Context) error
}

type app struct {
	cfg     *config.Config
	db      appDB
	auth    *middleware.Authenticator
	limiter middleware.LimiterStore

	badges     *services.BadgeDispatcher
	reconciler *services.ReconcileService

	userHandler        *handlers.UserHandler
	challengeHandler   *handlers.ChallengeHandler
	submissionHandler  *handlers.SubmissionHandler
	voteHandler        *handlers.VoteHandler
	favoriteHandler    *handlers.FavoriteHandler
	commentHandler     *handlers.CommentHandler
	followHandler      *handlers.FollowHandler
	leaderboardHandler *handlers.LeaderboardHandler
	uploadHandler      *handlers.UploadHandler
	adminHandler       *handlers.AdminHandler
	webhookHandler     *handlers.WebhookHandler
}

// newApp wires services and handlers over db. uploader may be nil.
func newApp(cfg *config.Config, db appDB, uploader handlers.MediaUploader, limiter middleware.LimiterStore) *app {
	badgeService := services.NewBadgeService(db)
	dispatcher := services.NewBadgeDispatcher(badgeService, cfg.BadgeWorkers, badgeQueueSize)

	userService := services.NewUserService(db)
	reconcileService := services.NewReconcileService(db)

	return &app{
		cfg:        cfg,
		db:         db,
		auth:       middleware.NewAuthenticator(userService, cfg.SessionSecret, cfg.ClerkSecretKey != ""),
		limiter:    limiter,
		badges:     dispatcher,
		reconciler: reconcileService,

		userHandler:        handlers.NewUserHandler(userService, badgeService),
		challengeHandler:   handlers.NewChallengeHandler(services.NewChallengeService(db, dispatcher)),
		submissionHandler:  handlers.NewSubmissionHandler(services.NewSubmissionService(db, dispatcher)),
		voteHandler:        handlers.NewVoteHandler(services.NewVoteService(db, dispatcher)),
		favoriteHandler:    handlers.NewFavoriteHandler(services.NewFavoriteService(db)),
		commentHandler:     handlers.NewCommentHandler(services.NewCommentService(db)),
		followHandler:      handlers.NewFollowHandler(services.NewFollowService(db)),
		leaderboardHandler: handlers.NewLeaderboardHandler(services.NewLeaderboardService(db)),
		uploadHandler:      handlers.NewUploadHandler(uploader),
		adminHandler:       handlers.NewAdminHandler(services.NewAdminService(db), reconcileService),
		webhookHandler:     handlers.NewWebhookHandler(userService, cfg.ClerkWebhookSecret),
	}
}

func (a *app) routes() http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.RateLimitMiddleware(a.limiter, a.cfg.TrustedProxies))
	r.Use(middleware.MonitorMiddleware)
	r.Use(middleware.LoggerMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(a.cfg.MetricsUser, a.cfg.MetricsPasswordHash)(promhttp.Handler())).Methods("GET")
	r.HandleFunc("/health", a.health).Methods("GET")
	r.HandleFunc("/webhooks/clerk", a.webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(a.auth.RequireAuth)

	api.HandleFunc("/users/me", a.userHandler.GetProfile).Methods("GET")
	api.HandleFunc("/users/me", a.userHandler.UpdateProfile).Methods("PUT")
	api.HandleFunc("/users/search", a.userHandler.SearchUsers).Methods("GET")
	api.HandleFunc("/users/{id}", a.userHandler.GetUser).Methods("GET")
	api.HandleFunc("/badges", a.userHandler.GetBadges).Methods("GET")

	api.HandleFunc("/challenges", a.challengeHandler.ListChallenges).Methods("GET")
	api.HandleFunc("/challenges", a.challengeHandler.CreateChallenge).Methods("POST")
	api.HandleFunc("/challenges/{id}", a.challengeHandler.GetChallenge).Methods("GET")
	api.HandleFunc("/challenges/{id}", a.challengeHandler.UpdateChallenge).Methods("PUT")
	api.HandleFunc("/challenges/{id}", a.challengeHandler.DeleteChallenge).Methods("DELETE")
	api.HandleFunc("/challenges/{id}/winner", a.challengeHandler.DeclareWinner).Methods("POST")

	api.HandleFunc("/submissions", a.submissionHandler.ListSubmissions).Methods("GET")
	api.HandleFunc("/submissions", a.submissionHandler.CreateSubmission).Methods("POST")
	api.HandleFunc("/submissions/{id}", a.submissionHandler.GetSubmission).Methods("GET")
	api.HandleFunc("/submissions/{id}", a.submissionHandler.DeleteSubmission).Methods("DELETE")

	api.HandleFunc("/votes", a.voteHandler.ListVotes).Methods("GET")
	api.HandleFunc("/votes", a.voteHandler.ToggleVote).Methods("POST")

	api.HandleFunc("/favorites", a.favoriteHandler.ListFavorites).Methods("GET")
	api.HandleFunc("/favorites", a.favoriteHandler.ToggleFavorite).Methods("POST")
	api.HandleFunc("/favorites/count", a.favoriteHandler.CountFavorites).Methods("GET")

	api.HandleFunc("/comments", a.commentHandler.ListComments).Methods("GET")
	api.HandleFunc("/comments", a.commentHandler.CreateComment).Methods("POST")
	api.HandleFunc("/comments/{id}", a.commentHandler.DeleteComment).Methods("DELETE")

	api.HandleFunc("/follow", a.followHandler.ListFollows).Methods("GET")
	api.HandleFunc("/follow", a.followHandler.ToggleFollow).Methods("POST")

	api.HandleFunc("/leaderboards", a.leaderboardHandler.GetLeaderboard).Methods("GET")
	api.HandleFunc("/leaderboards/me", a.leaderboardHandler.GetMyPosition).Methods("GET")

	api.HandleFunc("/upload", a.uploadHandler.Upload).Methods("POST")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)

	admin.HandleFunc("/collections", a.adminHandler.ListCollections).Methods("GET")
	admin.HandleFunc("/collections/{name}", a.adminHandler.GetCollection).Methods("GET")
	admin.HandleFunc("/users/{id}/role", a.adminHandler.SetUserRole).Methods("PUT")
	admin.HandleFunc("/reconcile", a.adminHandler.Reconcile).Methods("POST")
	admin.HandleFunc("/media", a.uploadHandler.DeleteMedia).Methods("DELETE")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(a.cfg.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)
	return corsHandler(r)
}

func (a *app) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := a.db.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy", "service": "snapchallenge-api"}`))
}
