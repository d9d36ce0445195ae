package main

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tasktrack/tasktracker/internal/config"
	"github.com/tasktrack/tasktracker/internal/logging"
	"github.com/tasktrack/tasktracker/internal/repository"
	"github.com/tasktrack/tasktracker/internal/server"
	"github.com/tasktrack/tasktracker/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logging.Init(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		JSON:    cfg.GinMode == gin.ReleaseMode,
		Service: "tasktracker",
	})

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	repos, err := repository.Open(cfg)
	if err != nil {
		logging.Logger.WithError(err).Fatal("failed to open store")
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		logging.Logger.WithError(err).Fatal("failed to create session store")
	}

	// Initialize AI service
	var drafter services.TaskDrafter
	if cfg.OpenAIAPIKey != "" {
		drafter = services.NewAIService(cfg.OpenAIAPIKey)
	}

	r := server.NewRouter(server.Dependencies{
		Config:       cfg,
		Repos:        repos,
		SessionStore: store,
		Drafter:      drafter,
	})

	logging.Logger.WithFields(logrus.Fields{
		"port":    cfg.Port,
		"store":   cfg.StoreDriver,
		"session": cfg.SessionStore,
	}).Info("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logging.Logger.WithError(err).Fatal("failed to start server")
	}
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.SessionStore == config.SessionStoreRedis {
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, err
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	isProduction := cfg.GinMode == gin.ReleaseMode
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // Lax
	})
	return store, nil
}
