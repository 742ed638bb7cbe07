package response

import "github.com/gin-gonic/gin"

const (
	CodeBadRequest         = 40000
	CodeUsernameExists     = 40001
	CodeEmailExists        = 40002
	CodeNoFile             = 40010
	CodeNotImage           = 40011
	CodeFileTooLarge       = 40012
	CodeUnauthorized       = 40100
	CodeInvalidCredentials = 40101
	CodeInvalidToken       = 40300
	CodeNotFound           = 40400
	CodeUserNotFound       = 40401
	CodeInternalServer     = 50000
	CodeRateLimited        = 50001
	CodeUpstream           = 50002
)

type ErrorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// OK writes body as is; success payloads are endpoint specific.
func OK(c *gin.Context, body interface{}) {
	c.JSON(200, body)
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, ErrorBody{
		Error: message,
		Code:  code,
	})
}
