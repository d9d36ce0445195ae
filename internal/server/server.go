package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/tasktrack/tasktracker/internal/config"
	"github.com/tasktrack/tasktracker/internal/constants"
	"github.com/tasktrack/tasktracker/internal/handlers"
	"github.com/tasktrack/tasktracker/internal/logging"
	"github.com/tasktrack/tasktracker/internal/middleware"
	"github.com/tasktrack/tasktracker/internal/repository"
	"github.com/tasktrack/tasktracker/internal/services"
)

// Dependencies is everything NewRouter needs from the process.
type Dependencies struct {
	Config       *config.Config
	Repos        repository.Set
	SessionStore sessions.Store
	// Drafter is nil when no AI backend is configured.
	Drafter services.TaskDrafter
	// Clock overrides time.Now for deadline windows and overdue flags.
	Clock func() time.Time
}

// NewRouter builds the services and registers every route.
func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	authService := services.NewAuthService(deps.Repos.Users)
	tokenService := services.NewTokenService(cfg.TokenSecret, cfg.TokenTTL)
	resolver := services.NewAccessResolver(deps.Repos.Users)
	directoryService := services.NewDirectoryService(deps.Repos.Users, deps.Repos.Projects)
	taskService := services.NewTaskService(
		deps.Repos.Tasks,
		deps.Repos.Users,
		deps.Repos.Projects,
		deps.Drafter,
		cfg.Location,
	)
	if deps.Clock != nil {
		taskService.SetClock(deps.Clock)
	}

	authHandler := handlers.NewAuthHandler(authService, tokenService)
	taskHandler := handlers.NewTaskHandler(taskService)
	directoryHandler := handlers.NewDirectoryHandler(directoryService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.RequestLogger())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.SessionStore))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Tracker API is running",
		})
	})

	requireAuth := middleware.RequireAuth(tokenService, cfg.TrustUserHeader)
	loadViewer := middleware.LoadViewer(authService, resolver)
	taskAccess := middleware.RequireTaskAccess(taskService)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, loadViewer, authHandler.Me)
		}

		// Everything below needs a viewer
		protected := api.Group("")
		protected.Use(requireAuth, loadViewer)
		{
			protected.GET("/users", directoryHandler.ListUsers)
			protected.GET("/users/accessible", directoryHandler.AccessibleUsers)
			protected.GET("/projects", directoryHandler.ListProjects)
			protected.GET("/timeline", taskHandler.Timeline)

			tasks := protected.Group("/tasks")
			{
				tasks.GET("", taskHandler.ListTasks)
				tasks.POST("", taskHandler.CreateTask)
				tasks.GET("/stats", taskHandler.Stats)
				tasks.POST("/drafts", taskHandler.DraftTasks)
				tasks.GET("/:id", taskAccess, taskHandler.GetTask)
				tasks.PUT("/:id", taskHandler.UpdateTask)
				tasks.POST("/:id/comments", taskAccess, taskHandler.AddComment)
			}
		}
	}

	return r
}

// corsConfig allows any origin without credentials when no origins are
// configured, and the listed origins with credentials otherwise.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			constants.HeaderUserID,
			constants.HeaderIfMatch,
		},
		ExposeHeaders: []string{constants.HeaderETag},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
