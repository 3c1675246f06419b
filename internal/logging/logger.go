// Package logging builds the process-wide logrus logger and the
// request-scoped entries handlers log through.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agrihealth-server/internal/domain"
)

// New creates a logger from the logging configuration
func New(config domain.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	out, err := openOutput(config.Output)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(out)

	return logger, nil
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file %s: %w", output, err)
		}
		return f, nil
	}
}

// FromContext returns an entry tagged with the request's correlation id
// and, once authenticated, the caller's user id.
func FromContext(c *gin.Context, logger *logrus.Logger) *logrus.Entry {
	fields := logrus.Fields{
		"correlation_id": c.GetString("correlation_id"),
		"method":         c.Request.Method,
		"path":           c.FullPath(),
	}
	if userID := c.GetString("user_id"); userID != "" {
		fields["user_id"] = userID
	}
	return logger.WithFields(fields)
}

var sensitivePatterns = []string{"password", "token", "secret", "authorization"}

// SanitizeField redacts values whose key looks like a credential and
// truncates very long strings.
func SanitizeField(key string, value interface{}) interface{} {
	lowerKey := strings.ToLower(key)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lowerKey, pattern) {
			return "[REDACTED]"
		}
	}

	if str, ok := value.(string); ok && len(str) > 1000 {
		return str[:1000] + "... [TRUNCATED]"
	}
	return value
}
