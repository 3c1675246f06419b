package logging

import (
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrihealth-server/internal/domain"
)

func TestNew(t *testing.T) {
	logger, err := New(domain.LoggingConfig{Level: "debug", Format: "json", Output: "stdout"})
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}

func TestNew_FallbackLevelAndText(t *testing.T) {
	logger, err := New(domain.LoggingConfig{Level: "chatty", Format: "text"})
	require.NoError(t, err)

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	_, isText := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	logger, err := New(domain.LoggingConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)
	logger.Info("hello")

	assert.FileExists(t, path)
}

func TestFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/diagnosis/history", nil)
	c.Set("correlation_id", "corr-1")
	c.Set("user_id", "user-1")

	entry := FromContext(c, logrus.New())

	assert.Equal(t, "corr-1", entry.Data["correlation_id"])
	assert.Equal(t, "user-1", entry.Data["user_id"])
	assert.Equal(t, "GET", entry.Data["method"])
}

func TestSanitizeField(t *testing.T) {
	assert.Equal(t, "[REDACTED]", SanitizeField("password", "hunter2"))
	assert.Equal(t, "[REDACTED]", SanitizeField("Authorization", "Bearer abc"))
	assert.Equal(t, "tomato", SanitizeField("speciesName", "tomato"))

	long := strings.Repeat("a", 1200)
	got := SanitizeField("notes", long).(string)
	assert.True(t, strings.HasSuffix(got, "... [TRUNCATED]"))
	assert.Len(t, got, 1000+len("... [TRUNCATED]"))
}
