package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aikona/internal/app"
	"aikona/internal/transport/http/response"
)

const avatarField = "profilePic"

type AvatarHandler struct {
	avatarService *app.AvatarService
	maxBytes      int64
	publicBaseURL string
}

type AvatarResponse struct {
	ProfilePic string `json:"profilePic"`
}

// NewAvatarHandler builds URLs from the request host when publicBaseURL is empty.
func NewAvatarHandler(avatarService *app.AvatarService, maxBytes int64, publicBaseURL string) *AvatarHandler {
	return &AvatarHandler{
		avatarService: avatarService,
		maxBytes:      maxBytes,
		publicBaseURL: publicBaseURL,
	}
}

func (h *AvatarHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	// leave room for the multipart envelope around the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)

	fileHeader, err := c.FormFile(avatarField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusBadRequest, response.CodeFileTooLarge, app.ErrFileTooLarge.Error())
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeNoFile, app.ErrNoFile.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		serverError(c, err)
		return
	}
	defer file.Close()

	url, err := h.avatarService.Upload(c.Request.Context(), app.AvatarUpload{
		UserID:      userID,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
		BaseURL:     h.baseURL(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNoFile):
			response.Error(c, http.StatusBadRequest, response.CodeNoFile, err.Error())
		case errors.Is(err, app.ErrNotImageFile):
			response.Error(c, http.StatusBadRequest, response.CodeNotImage, err.Error())
		case errors.Is(err, app.ErrFileTooLarge):
			response.Error(c, http.StatusBadRequest, response.CodeFileTooLarge, err.Error())
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, response.CodeUserNotFound, err.Error())
		default:
			serverError(c, err)
		}
		return
	}

	response.OK(c, AvatarResponse{ProfilePic: url})
}

func (h *AvatarHandler) baseURL(c *gin.Context) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
