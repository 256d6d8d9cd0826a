package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the structured body of every failed request.
type ErrorBody struct {
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// MessageBody is returned by operations whose only result is a confirmation.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON writes data as-is with the given status.
func JSON(ctx *gin.Context, status int, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, data)
}

func Message(ctx *gin.Context, status int, message string) {
	JSON(ctx, status, MessageBody{Message: message})
}

// Error writes an error body and aborts the handler chain.
func Error(ctx *gin.Context, status int, message string, details interface{}) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	ctx.AbortWithStatusJSON(status, ErrorBody{
		Message:   message,
		RequestID: ctx.GetString("request_id"),
		Details:   details,
	})
}
