package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agrihealth-server/internal/domain"
	"github.com/agrihealth-server/internal/logging"
	"github.com/agrihealth-server/internal/storage"
)

const productionDetail = "Something went wrong"

// messageError attaches a client-facing message to an error
type messageError struct {
	err     error
	message string
}

func (e *messageError) Error() string { return e.err.Error() }

func (e *messageError) Unwrap() error { return e.err }

// WithMessage sets the message the client sees for err. The status code is
// still derived from err.
func WithMessage(err error, message string) error {
	if err == nil {
		return nil
	}
	return &messageError{err: err, message: message}
}

// Classify maps an error onto a status code and the APIError envelope.
// Details of 5xx errors are hidden when production is set.
func Classify(err error, production bool, requestID string) (int, *domain.APIError) {
	status, code, message := http.StatusInternalServerError, domain.CodeInternalServer, "Internal server error"

	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		status, code, message = http.StatusBadRequest, domain.CodeValidation, validationErr.Message
	case errors.Is(err, domain.ErrInvalidType):
		status, code, message = http.StatusBadRequest, domain.CodeInvalidType, `Invalid type. Must be "plant" or "livestock"`
	case errors.Is(err, domain.ErrInvalidQuery):
		status, code, message = http.StatusBadRequest, domain.CodeInvalidQuery, "Search query must be at least 2 characters"
	case errors.Is(err, domain.ErrUnauthenticated):
		status, code, message = http.StatusUnauthorized, domain.CodeAuthentication, "Authentication required."
	case errors.Is(err, domain.ErrForbidden):
		status, code, message = http.StatusForbidden, domain.CodeAuthorization, "Access denied."
	case errors.Is(err, domain.ErrNotFound):
		status, code, message = http.StatusNotFound, domain.CodeNotFound, "Resource not found"
	case errors.Is(err, domain.ErrConflict):
		status, code, message = http.StatusConflict, domain.CodeConflict, "Resource already exists"
	case errors.Is(err, storage.ErrTooLarge):
		status, code, message = http.StatusRequestEntityTooLarge, domain.CodeRequestTooLarge, "Image exceeds the maximum upload size"
	case errors.Is(err, domain.ErrUpstream):
		code = domain.CodeUpstream
	}

	var withMessage *messageError
	if errors.As(err, &withMessage) {
		message = withMessage.message
	}

	detail := err.Error()
	if status >= http.StatusInternalServerError && production {
		detail = productionDetail
	}

	return status, domain.NewAPIError(code, message, detail, requestID)
}

// ErrorHandler renders the last error a handler attached with c.Error
func ErrorHandler(logger *logrus.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, apiErr := Classify(err, production, c.GetString(correlationIDKey))

		entry := logging.FromContext(c, logger).WithFields(logrus.Fields{
			"status": status,
			"code":   apiErr.Code,
		}).WithError(err)
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case errors.Is(err, context.DeadlineExceeded):
			entry.Warn("Request timed out")
		default:
			entry.Debug("Request rejected")
		}

		c.JSON(status, apiErr)
	}
}

// Recovery turns a panic into a logged 500 with the usual envelope
func Recovery(logger *logrus.Logger, production bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err := fmt.Errorf("panic: %v", recovered)
		logging.FromContext(c, logger).WithError(err).Error("Recovered from panic")

		_, apiErr := Classify(err, production, c.GetString(correlationIDKey))
		c.AbortWithStatusJSON(http.StatusInternalServerError, apiErr)
	})
}
