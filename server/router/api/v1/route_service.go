package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	aierrors "github.com/kiralabs/kira/server/internal/errors"
	"github.com/kiralabs/kira/server/service/route"
)

// PostRoute routes one inbound message.
// POST /api/v1/route
func (s *APIV1Service) PostRoute(c echo.Context) error {
	in := &route.Inbound{}
	if err := c.Bind(in); err != nil {
		return errorResponse(c, aierrors.InvalidArgument("malformed request body"))
	}
	if err := in.Validate(); err != nil {
		return errorResponse(c, err)
	}

	if s.limiter != nil && !s.limiter.Allow(in.Platform+":"+in.SenderID) {
		return errorResponse(c, aierrors.RateLimitExceeded("too many messages from this sender"))
	}

	out, err := s.RouteService.Route(c.Request().Context(), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ErrorResponse is the body of a failed API call.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorResponse(c echo.Context, err error) error {
	code := aierrors.GetCodeFromError(err, aierrors.ErrCodeServiceUnavailable)
	status := httpStatus(code)
	if status >= http.StatusInternalServerError {
		slog.Error("api request failed", "path", c.Path(), "code", code, "error", err)
	}

	message := http.StatusText(status)
	var aiErr *aierrors.AIError
	if status < http.StatusInternalServerError && errors.As(err, &aiErr) {
		message = aiErr.Message
	}
	return c.JSON(status, ErrorResponse{Code: string(code), Message: message})
}

// httpStatus maps an error code onto an HTTP status.
func httpStatus(code aierrors.ErrorCode) int {
	switch code {
	case aierrors.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case aierrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case aierrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case aierrors.ErrCodeContextCanceled:
		return 499
	case aierrors.ErrCodeServiceUnavailable, aierrors.ErrCodeLLMUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
