package http

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aikona/internal/ai"
	appsvc "aikona/internal/app"
	"aikona/internal/bootstrap"
	"aikona/internal/platform/rabbitmq"
	"aikona/internal/ratelimit"
	"aikona/internal/repository"
	"aikona/internal/sentiment"
	"aikona/internal/transport/http/handler"
	"aikona/internal/transport/http/middleware"
	"aikona/internal/transport/http/response"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	if cfg.App.GinMode != "" {
		gin.SetMode(cfg.App.GinMode)
	}
	router := gin.New()
	router.Use(middleware.Observe(app.Logger), gin.Recovery(), cors.New(corsConfig(cfg.AllowedOrigins())))

	completer := ai.NewOpenAICompatibleClient(ai.ChatConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		MaxAttempts: cfg.LLM.MaxAttempts,
		BackoffUnit: time.Duration(cfg.LLM.BackoffUnitMS) * time.Millisecond,
	})

	userRepo := repository.NewUserRepository(app.DB)
	messageRepo := repository.NewMessageRepository(app.DB)
	moodRepo := repository.NewMoodRepository(app.DB)

	var moods appsvc.MoodPublisher
	if app.MQConn != nil {
		moods = rabbitmq.NewMoodPublisher(app.MQConn, cfg.RabbitMQ.MoodQueue)
	}

	authService := appsvc.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.JWTExpiration())
	chatService := appsvc.NewChatService(messageRepo, completer, newLimiter(app), moods, appsvc.ChatOptions{
		SystemPrompt:  cfg.Chat.SystemPrompt,
		CreatorName:   cfg.Chat.CreatorName,
		HistoryWindow: cfg.Chat.HistoryWindow,
		ReplyDelay:    time.Duration(cfg.Chat.ReplyDelayMS) * time.Millisecond,
		Hints:         sentiment.DefaultHints,
	}, app.Logger)
	avatarService := appsvc.NewAvatarService(userRepo, app.Avatars, cfg.Upload.MaxBytes, app.Logger)
	moodService := appsvc.NewMoodService(moodRepo)

	healthHandler := handler.NewHealthHandler(app, completer)
	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	avatarHandler := handler.NewAvatarHandler(avatarService, cfg.Upload.MaxBytes, cfg.App.PublicBaseURL)
	moodHandler := handler.NewMoodHandler(moodService)

	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Upload.Backend != "s3" && cfg.Upload.Dir != "" {
		router.Static("/uploads", cfg.Upload.Dir)
	}

	api := router.Group("/api")
	api.GET("/test", healthHandler.Probe)
	api.POST("/signup", authHandler.Signup)
	api.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthJWT(cfg.Auth.JWTSecret))
	authed.POST("/chat", chatHandler.Send)
	authed.GET("/history", chatHandler.History)
	authed.DELETE("/clear-chat", chatHandler.Clear)
	authed.POST("/upload-profile-pic", avatarHandler.Upload)
	authed.GET("/mood", moodHandler.List)

	if cfg.Web.Dir != "" {
		serveWeb(router, cfg.Web.Dir)
	}

	return router
}

func newLimiter(app *bootstrap.App) ratelimit.Limiter {
	cfg := app.Config.RateLimit
	window := time.Duration(cfg.WindowSeconds) * time.Second
	if cfg.Backend == "redis" && app.Redis != nil {
		return ratelimit.NewRedisWindowCounter(app.Redis, cfg.Key, cfg.Limit, window)
	}
	return ratelimit.NewWindowCounter(cfg.Limit, window)
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

// serveWeb serves a built single page app, falling back to index.html for
// client side routes outside /api.
func serveWeb(router *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")
	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || c.Request.Method != "GET" {
			response.Error(c, 404, response.CodeNotFound, "Not found")
			return
		}
		file := filepath.Join(dir, filepath.Clean("/"+path))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(index)
	})
}
