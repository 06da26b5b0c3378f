package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorEnvelope is the body of every non-2xx answer. Notices carries the
// form notifications that go with a failed submission or share.
type ErrorEnvelope struct {
	Error   APIError `json:"error"`
	Notices any      `json:"notices,omitempty"`
}

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// RespondError writes a client error whose message is safe to show as is.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeError(c, status, APIError{Message: msg, Code: code}, nil)
}

func writeError(c *gin.Context, status int, body APIError, notices any) {
	c.JSON(status, ErrorEnvelope{Error: body, Notices: notices})
}

func RespondOK(c *gin.Context, payload any) { c.JSON(http.StatusOK, payload) }

func RespondCreated(c *gin.Context, payload any) { c.JSON(http.StatusCreated, payload) }
