package responses

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"teleclinic/consult-api/internal/domain/consultation"
	"teleclinic/consult-api/internal/domain/payment"
	"teleclinic/consult-api/internal/domain/queue"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// HandleError handles errors and writes appropriate HTTP responses.
// It maps domain sentinel errors and platform errors to HTTP status codes.
func HandleError(c *gin.Context, err error, message string) {
	logger := log.With().Str("path", c.Request.URL.Path).Logger()

	// Check for domain sentinel errors first
	switch {
	case consultation.IsNotFound(err), queue.IsNotFound(err), payment.IsNotFound(err):
		platformerrors.WriteNotFound(c, message)
		return
	case queue.IsConflict(err):
		platformerrors.WriteConflict(c, message)
		return
	}

	// Use platform error handler for everything else
	platformerrors.WriteError(c, err, logger)
}

// HandleNewError creates and writes a new typed error response.
// Use this for route-level errors like validation or authorization failures.
func HandleNewError(c *gin.Context, errorType platformerrors.ErrorType, message string) {
	status := platformerrors.ErrorTypeToHTTPStatus(errorType)
	c.JSON(status, ErrorResponse{
		Error: &ErrorDetail{
			Message: message,
			Type:    statusToErrorType(status),
		},
	})
}

// statusToErrorType converts HTTP status code to error type string.
func statusToErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusUnauthorized:
		return "unauthorized_error"
	case http.StatusForbidden:
		return "forbidden_error"
	case http.StatusNotFound:
		return "not_found_error"
	case http.StatusConflict:
		return "conflict_error"
	case http.StatusTooManyRequests:
		return "rate_limited_error"
	default:
		return "internal_error"
	}
}
