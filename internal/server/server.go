package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emilythestrangee/qa-community/backend/internal/config"
	"github.com/emilythestrangee/qa-community/backend/internal/database"
	"github.com/emilythestrangee/qa-community/backend/internal/handlers"
	"github.com/emilythestrangee/qa-community/backend/internal/middleware"
)

type Server struct {
	cfg     *config.Config
	db      database.Service
	handler *handlers.Handler
	clock   clockwork.Clock
}

// New wires the handlers over an open database.
func New(cfg *config.Config, db database.Service, clock clockwork.Clock) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Server{
		cfg:     cfg,
		db:      db,
		handler: handlers.NewHandler(db.GetDB(), cfg, clock),
		clock:   clock,
	}
}

// NewServer creates the HTTP server for cfg over db
func NewServer(cfg *config.Config, db database.Service, clock clockwork.Clock) *http.Server {
	s := New(cfg, db, clock)

	return &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	// CORS configuration
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(s.cfg.CORSOrigins) == 0 || (len(s.cfg.CORSOrigins) == 1 && s.cfg.CORSOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.cfg.CORSOrigins
		corsConfig.AllowCredentials = true
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.AuthMiddleware([]byte(s.cfg.JWTSecret), s.clock)

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Public reads
		api.GET("/questions", s.handler.Question.GetQuestions)
		api.GET("/questions/:id", s.handler.Question.GetQuestion)
		api.GET("/questions/:id/answers", s.handler.Answer.GetAnswers)
		api.GET("/users", s.handler.User.GetUsers)
		api.GET("/users/:id", s.handler.User.GetUserProfile)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(auth)
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			protected.POST("/questions", s.handler.Question.CreateQuestion)
			protected.PUT("/questions/:id", s.handler.Question.UpdateQuestion)
			protected.DELETE("/questions/:id", s.handler.Question.DeleteQuestion)
			protected.POST("/questions/:id/answers", s.handler.Answer.CreateAnswer)

			protected.PUT("/answers/:answerId", s.handler.Answer.UpdateAnswer)
			protected.DELETE("/answers/:answerId", s.handler.Answer.DeleteAnswer)
			protected.POST("/answers/:answerId/accept", s.handler.Answer.AcceptAnswer)

			protected.GET("/votes/:target_type/:id", s.handler.Vote.GetVote)

			protected.PUT("/users/:id", s.handler.User.UpdateUserProfile)
		}

		// Vote routes answer {success, message} even when the caller is not signed in
		votes := api.Group("")
		votes.Use(middleware.OptionalAuth([]byte(s.cfg.JWTSecret), s.clock))
		{
			votes.POST("/votes", s.handler.Vote.Vote)
			votes.POST("/questions/:id/vote", s.handler.Vote.VoteQuestion)
			votes.POST("/answers/:answerId/vote", s.handler.Vote.VoteAnswer)
		}

		admin := api.Group("/admin")
		admin.Use(auth, middleware.RequireAdmin())
		{
			admin.GET("/users", s.handler.User.AdminListUsers)
		}
	}

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.db.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}
