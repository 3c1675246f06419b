package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrihealth-server/internal/domain"
	"github.com/agrihealth-server/internal/service"
	"github.com/agrihealth-server/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type stubValidator struct {
	claims *service.Claims
	err    error
}

func (v stubValidator) ValidateToken(string) (*service.Claims, error) {
	return v.claims, v.err
}

type recordedRequest struct {
	method string
	path   string
	status int
}

type stubRecorder struct {
	requests []recordedRequest
}

func (r *stubRecorder) RecordHTTPRequest(method, path string, statusCode int, _ float64) {
	r.requests = append(r.requests, recordedRequest{method, path, statusCode})
}

func newRouter(production bool) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(testLogger(), production), CorrelationID(), ErrorHandler(testLogger(), production))
	return r
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) domain.APIError {
	t.Helper()
	var body domain.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", domain.NewValidationError("symptoms", "Symptoms array is required", nil), 400, domain.CodeValidation, "Symptoms array is required"},
		{"invalid type", fmt.Errorf("%q: %w", "fish", domain.ErrInvalidType), 400, domain.CodeInvalidType, `Invalid type. Must be "plant" or "livestock"`},
		{"invalid query", domain.ErrInvalidQuery, 400, domain.CodeInvalidQuery, "Search query must be at least 2 characters"},
		{"unauthenticated", fmt.Errorf("x: %w", domain.ErrUnauthenticated), 401, domain.CodeAuthentication, "Authentication required."},
		{"forbidden", domain.ErrForbidden, 403, domain.CodeAuthorization, "Access denied."},
		{"not found with message", WithMessage(fmt.Errorf("diagnosis: %w", domain.ErrNotFound), "Diagnosis not found"), 404, domain.CodeNotFound, "Diagnosis not found"},
		{"conflict", domain.ErrConflict, 409, domain.CodeConflict, "Resource already exists"},
		{"too large", fmt.Errorf("upload: %w", storage.ErrTooLarge), 413, domain.CodeRequestTooLarge, "Image exceeds the maximum upload size"},
		{"upstream", fmt.Errorf("image upload: %w", domain.ErrUpstream), 500, domain.CodeUpstream, "Internal server error"},
		{"unknown", errors.New("boom"), 500, domain.CodeInternalServer, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, apiErr := Classify(tt.err, false, "req-1")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, "req-1", apiErr.RequestID)
			assert.Equal(t, tt.err.Error(), apiErr.Details)
		})
	}
}

func TestClassify_ProductionHidesServerErrorDetail(t *testing.T) {
	_, apiErr := Classify(errors.New("pq: connection refused"), true, "")
	assert.Equal(t, productionDetail, apiErr.Details)

	_, apiErr = Classify(domain.NewValidationError("type", "bad", nil), true, "")
	assert.NotEqual(t, productionDetail, apiErr.Details)
}

func TestErrorHandler(t *testing.T) {
	r := newRouter(true)
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(WithMessage(domain.ErrNotFound, "Disease not found"))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("database exploded"))
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("X-Correlation-ID", "corr-42")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeAPIError(t, rec)
	assert.Equal(t, "Disease not found", body.Message)
	assert.Equal(t, "corr-42", body.RequestID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body = decodeAPIError(t, rec)
	assert.Equal(t, "Something went wrong", body.Details)
}

func TestRecovery(t *testing.T) {
	r := newRouter(false)
	r.GET("/panic", func(c *gin.Context) {
		panic("unexpected nil")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeAPIError(t, rec)
	assert.Equal(t, domain.CodeInternalServer, body.Code)
	assert.Contains(t, body.Details, "unexpected nil")
}

func TestRequireAuth(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name      string
		header    string
		validator stubValidator
		status    int
		message   string
	}{
		{"no header", "", stubValidator{}, 401, "Authentication required. No token provided."},
		{"not bearer", "Basic abc", stubValidator{}, 401, "Authentication required. No token provided."},
		{"empty token", "Bearer   ", stubValidator{}, 401, "Authentication token is missing."},
		{"invalid", "Bearer bad", stubValidator{err: fmt.Errorf("invalid token: %w", domain.ErrUnauthenticated)}, 401, "Invalid token. Please log in again."},
		{"valid", "Bearer good", stubValidator{claims: &service.Claims{UserID: userID, Role: domain.RoleFarmer}}, 200, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(false)
			r.GET("/me", RequireAuth(tt.validator), func(c *gin.Context) {
				id, ok := CurrentUser(c)
				require.True(t, ok)
				c.JSON(http.StatusOK, gin.H{"id": id.String(), "role": CurrentRole(c)})
			})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				assert.Equal(t, tt.message, decodeAPIError(t, rec).Message)
				return
			}
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, userID.String(), body["id"])
			assert.Equal(t, "farmer", body["role"])
		})
	}
}

func TestRequireRoles(t *testing.T) {
	for _, tc := range []struct {
		role   domain.Role
		status int
	}{
		{domain.RoleFarmer, http.StatusForbidden},
		{domain.RoleExpert, http.StatusOK},
		{domain.RoleVeterinarian, http.StatusOK},
	} {
		t.Run(string(tc.role), func(t *testing.T) {
			validator := stubValidator{claims: &service.Claims{UserID: uuid.New(), Role: tc.role}}
			r := newRouter(false)
			r.PUT("/review", RequireAuth(validator), RequireRoles(domain.RoleExpert, domain.RoleVeterinarian), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/review", nil)
			req.Header.Set("Authorization", "Bearer t")
			r.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusForbidden {
				assert.Equal(t, "Access denied. farmer role is not authorized.", decodeAPIError(t, rec).Message)
			}
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	recorder := &stubRecorder{}
	r := gin.New()
	r.Use(Metrics(recorder))
	r.GET("/api/diseases/type/:type", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/diseases/type/plant", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Len(t, recorder.requests, 2)
	assert.Equal(t, recordedRequest{"GET", "/api/diseases/type/:type", 200}, recorder.requests[0])
	assert.Equal(t, recordedRequest{"GET", "unmatched", 404}, recorder.requests[1])
}

func TestSecurityHeadersAndCORS(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(), CORS())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/health", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
