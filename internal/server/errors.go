package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dshills/chatgraph/graph"
)

// StatusClientClosedRequest is reported when the caller went away before
// the graph finished.
const StatusClientClosedRequest = 499

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps an error returned by a handler to an HTTP status and a
// client-facing message.
func statusFor(err error) (int, string) {
	var httpErr *echo.HTTPError
	var nodeErr *graph.NodeError

	switch {
	case errors.As(err, &httpErr):
		msg := http.StatusText(httpErr.Code)
		if s, ok := httpErr.Message.(string); ok {
			msg = s
		}
		return httpErr.Code, msg
	case errors.Is(err, graph.ErrInvalidState):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "model call timed out"
	case errors.As(err, &nodeErr):
		return http.StatusBadGateway, "chat backend failed"
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorResponse{Error: msg})
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("write error response")
	}
}
