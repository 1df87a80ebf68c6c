// Package middleware carries the echo middleware for the status server.
package middleware

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

// Logger logs one structured line per request.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.New().String()
			}

			logger.WithContext(req.Context()).WithFields(map[string]any{
				"request_id":    id,
				"method":        req.Method,
				"route":         c.Path(),
				"uri":           req.RequestURI,
				"status":        res.Status,
				"remote_ip":     c.RealIP(),
				"response_time": time.Since(start).String(),
			}).Info("Request")

			return nil
		}
	}
}

// ErrorResponse is the body of an error reply.
type ErrorResponse struct {
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler maps errors onto JSON error replies.
func ErrorHandler(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		logger.WithContext(ctx).WithError(err).Error("Request failed")
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal Server Error"

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}
		if httperror.IsHTTPError(err) {
			code = httperror.GetStatusCode(err)
			message = httperror.ToHTTPError(err).Error()
		}

		_ = c.JSON(code, ErrorResponse{
			Message: message,
			TraceID: tracing.GetTraceID(ctx),
		})
	}
}
