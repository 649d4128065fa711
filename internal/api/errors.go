package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contraceptive-compass-server/internal/domain"
	"github.com/contraceptive-compass-server/internal/middleware"
)

// MapHTTPStatus maps domain errors to an HTTP status and API error code
func MapHTTPStatus(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &verr):
		return http.StatusBadRequest, domain.ErrCodeValidation
	case errors.Is(err, domain.ErrInvalidIdentifier), errors.Is(err, domain.ErrInvalidTier):
		return http.StatusBadRequest, domain.ErrCodeInvalidInput
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.ErrCodeNotFound
	case errors.Is(err, domain.ErrInvalidCatalog):
		return http.StatusInternalServerError, domain.ErrCodeCatalog
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, domain.ErrCodeUnavailable
	default:
		return http.StatusInternalServerError, domain.ErrCodeInternalServer
	}
}

// respondError writes err as an APIError body. Internal errors are logged and
// their details withheld from the client.
func (s *Server) respondError(c *gin.Context, err error, message string) {
	status, code := MapHTTPStatus(err)
	details := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("correlation_id", c.GetString(middleware.CorrelationIDKey)).Error(message)
		details = ""
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, c.GetString(middleware.CorrelationIDKey)))
}

func (s *Server) respondBadRequest(c *gin.Context, message string, err error) {
	details := ""
	if err != nil {
		details = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, domain.NewAPIError(
		domain.ErrCodeInvalidInput, message, details, c.GetString(middleware.CorrelationIDKey),
	))
}
