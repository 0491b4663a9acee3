package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dnsforyou/idgw/internal/outcome"
)

// envelope is the uniform response body. Every endpoint, success or failure,
// answers with this shape.
type envelope struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// respondOK writes a 200 envelope.
func respondOK(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, envelope{IsSuccess: true, Message: message, Data: data})
}

// respondFail writes a 400 envelope. Operation failures are client-visible
// business errors, not transport errors, so they all map to 400.
func respondFail(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{IsSuccess: false, Message: message})
}

// respondMessage writes a 200 envelope carrying only a message. Used by the
// acknowledgement-style operations whose payload is just a success flag.
func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, envelope{IsSuccess: true, Message: message})
}

// respond translates an operation outcome into the envelope, overriding the
// outcome's message with successMessage when the operation succeeded.
func respond[T any](c *gin.Context, o outcome.Outcome[T], successMessage string) {
	if o.IsFailure() {
		respondFail(c, o.Message())
		return
	}
	respondOK(c, o.Data(), successMessage)
}

// respondAck translates an acknowledgement outcome, dropping the boolean
// payload from the response body.
func respondAck(c *gin.Context, o outcome.Outcome[bool], successMessage string) {
	if o.IsFailure() {
		respondFail(c, o.Message())
		return
	}
	respondMessage(c, successMessage)
}
