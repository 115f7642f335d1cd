package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/majorjayant/siteconfig/pkg/errors"
)

// Response is the flat envelope shared by every payload. Endpoint specific
// payloads embed it so fields like site_config sit next to success.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is rendered for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Success writes a JSON success response carrying only a message.
func Success(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
	})
}

// JSON writes an arbitrary payload. Payloads are expected to embed Response.
func JSON(c *gin.Context, statusCode int, payload any) {
	c.JSON(statusCode, payload)
}

// NewError converts err into the status code and body rendered to clients.
// Internal details never leave the process.
func NewError(err error) (int, ErrorResponse) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return status, ErrorResponse{
		Success: false,
		Code:    appErr.Code,
		Error:   appErr.Message,
		Message: appErr.Message,
	}
}

// Error writes a JSON error response derived from an AppError.
func Error(c *gin.Context, err error) {
	status, body := NewError(err)
	c.JSON(status, body)
}
