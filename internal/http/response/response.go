package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gitrec/internal/platform/apierr"
)

type APIError struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// statusClientClosed is the nginx convention for a request the caller abandoned.
const statusClientClosed = 499

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError maps err through the shared error taxonomy. Errors outside
// the taxonomy are reported as 500 without leaking their text.
func RespondAPIError(c *gin.Context, err error) {
	if err == nil {
		RespondError(c, http.StatusInternalServerError, "internal", nil)
		return
	}
	_ = c.Error(err)

	if e, ok := apierr.As(err); ok {
		status := e.Status
		if status == 0 {
			status = apierr.StatusFor(e.Kind)
		}
		code := e.Code
		if code == "" {
			code = string(e.Kind)
		}
		body := APIError{Message: e.Error(), Code: code}
		if len(e.Fields) > 0 {
			body.Fields = e.Fields
		}
		c.JSON(status, ErrorEnvelope{Error: body})
		return
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		RespondError(c, http.StatusGatewayTimeout, "timeout", errors.New("request timed out"))
	case errors.Is(err, context.Canceled):
		RespondError(c, statusClientClosed, "client_closed", errors.New("request cancelled"))
	default:
		RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal server error"))
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
