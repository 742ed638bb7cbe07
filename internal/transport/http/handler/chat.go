package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aikona/internal/app"
	"aikona/internal/model"
	"aikona/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

// ChatRequest still accepts the client-side transcript older frontends send;
// the prompt history is always read from storage instead.
type ChatRequest struct {
	Message     string          `json:"message"`
	ChatHistory json.RawMessage `json:"chatHistory,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type HistoryResponse struct {
	History []model.Message `json:"history"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, app.ErrMessageEmpty.Error())
		return
	}

	// a client hanging up must not abort a paid completion halfway
	ctx := context.WithoutCancel(c.Request.Context())
	reply, err := h.chatService.SendMessage(ctx, userID, req.Message)
	if err != nil {
		if errors.Is(err, app.ErrMessageEmpty) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		serverError(c, err)
		return
	}

	response.OK(c, ChatResponse{Response: reply})
}

func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	messages, err := h.chatService.History(c.Request.Context(), userID)
	if err != nil {
		serverError(c, err)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}
	response.OK(c, HistoryResponse{History: messages})
}

func (h *ChatHandler) Clear(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.chatService.Clear(c.Request.Context(), userID); err != nil {
		serverError(c, err)
		return
	}
	response.OK(c, MessageResponse{Message: "Chat history cleared successfully"})
}
