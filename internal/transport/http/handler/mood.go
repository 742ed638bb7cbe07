package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aikona/internal/app"
	"aikona/internal/model"
	"aikona/internal/transport/http/response"
)

type MoodHandler struct {
	moodService *app.MoodService
}

type MoodResponse struct {
	Mood []model.MoodEntry `json:"mood"`
}

func NewMoodHandler(moodService *app.MoodService) *MoodHandler {
	return &MoodHandler{moodService: moodService}
}

func (h *MoodHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := h.moodService.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		serverError(c, err)
		return
	}
	if entries == nil {
		entries = []model.MoodEntry{}
	}
	response.OK(c, MoodResponse{Mood: entries})
}
