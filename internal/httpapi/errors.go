package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorEnvelope is the JSON error shape: {success:false, error:{code,message}}.
type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorEnvelope{
		Success: false,
		Error:   errorBody{Code: code, Message: message},
	})
}

func badRequest(c *gin.Context, code, message string) { writeError(c, http.StatusBadRequest, code, message) }
func tooManyRequests(c *gin.Context, message string) {
	writeError(c, http.StatusTooManyRequests, "RATE_LIMITED", message)
}
func internalError(c *gin.Context, message string) {
	writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}
func notFound(c *gin.Context, message string) {
	writeError(c, http.StatusNotFound, "NOT_FOUND", message)
}
