package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/treatmentplan-backend/internal/platform/apierr"
)

// RespondAPIError writes err through its *apierr.Error status and code; any
// other error is a 500. Oversized bodies map to 413.
func RespondAPIError(c *gin.Context, err error) {
	RespondAPIErrorWithNotices(c, err, nil)
}

func RespondAPIErrorWithNotices(c *gin.Context, err error, notices any) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		err = apierr.New(http.StatusRequestEntityTooLarge, "payload_too_large", err)
	}
	ae := apierr.As(err)
	_ = c.Error(err)
	msg := ae.Error()
	if ae.Status >= http.StatusInternalServerError && ae.Code != "" {
		// Upstream causes can carry driver details; keep them in the logs.
		msg = ae.Code
	}
	writeError(c, ae.Status, APIError{Message: msg, Code: ae.Code}, notices)
}
