package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aikona/internal/ai"
	"aikona/internal/bootstrap"
)

type completer interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

type HealthHandler struct {
	app       *bootstrap.App
	completer completer
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type ProbeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func NewHealthHandler(app *bootstrap.App, c completer) *HealthHandler {
	return &HealthHandler{app: app, completer: c}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := h.checkDatabase(ctx)
	redisStatus := h.checkRedis(ctx)
	rmqStatus := h.checkRabbitMQ()

	allOK := dbStatus.OK && redisStatus.OK && rmqStatus.OK
	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"app":        h.app.Config.App.Name,
		"env":        h.app.Config.App.Env,
		"uptime_sec": int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
			"rabbitmq": rmqStatus,
		},
	})
}

// Probe sends a one-line prompt to the completion API.
func (h *HealthHandler) Probe(c *gin.Context) {
	if h.app.Config.LLM.APIKey == "" {
		c.JSON(http.StatusInternalServerError, apiKeyMissing())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	_, err := h.completer.Complete(ctx, []ai.ChatMessage{{Role: "user", Content: "Hello"}})
	if err != nil {
		_ = c.Error(err)
		var statusErr *ai.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
			c.JSON(http.StatusInternalServerError, apiKeyMissing())
			return
		}
		c.JSON(http.StatusInternalServerError, ProbeResponse{
			Status:  "error",
			Message: "API test failed",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, ProbeResponse{
		Status:  "ok",
		Message: "Backend server and API are running properly!",
	})
}

func apiKeyMissing() ProbeResponse {
	return ProbeResponse{
		Status:  "api_key_missing",
		Message: "API key not configured or invalid",
		Error:   "Please check your GROQ_API_KEY configuration",
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) dependencyStatus {
	sqlDB, err := h.app.DB.DB()
	if err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if h.app.Redis == nil {
		return dependencyStatus{OK: true, Message: "disabled"}
	}
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRabbitMQ() dependencyStatus {
	if h.app.Config.RabbitMQ.URL == "" {
		return dependencyStatus{OK: true, Message: "disabled"}
	}
	if h.app.MQConn == nil || h.app.MQConn.IsClosed() {
		return dependencyStatus{OK: false, Message: "connection closed"}
	}
	return dependencyStatus{OK: true}
}
