package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aikona/internal/ai"
	"aikona/internal/app"
	"aikona/internal/transport/http/middleware"
	"aikona/internal/transport/http/response"
)

// serverError reports failures past validation. Upstream errors already carry
// a message meant for the user, anything else surfaces as is.
func serverError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := response.CodeInternalServer
	var statusErr *ai.StatusError
	switch {
	case errors.Is(err, app.ErrRateLimitExceeded), errors.Is(err, ai.ErrRateLimited):
		code = response.CodeRateLimited
	case errors.Is(err, ai.ErrUnavailable), errors.Is(err, ai.ErrInvalidResponse),
		errors.Is(err, ai.ErrMessageTooLong), errors.Is(err, ai.ErrRequestFormat),
		errors.As(err, &statusErr):
		code = response.CodeUpstream
	}
	response.Error(c, http.StatusInternalServerError, code, err.Error())
}

func currentUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusForbidden, response.CodeInvalidToken, "Invalid token")
		return 0, false
	}
	return userID, true
}
