package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/wifipass/pkg/response"
)

func serveJSON(t *testing.T, r *gin.Engine, method, path string) (int, response.Response) {
	t.Helper()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))

	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return w.Code, payload
}

func TestRecoveryHidesPanicValue(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Recovery())
	r.POST("/api/sessions/:token/refresh", func(c *gin.Context) {
		panic(errors.New("registry corrupted for token abc123"))
	})

	status, payload := serveJSON(t, r, http.MethodPost, "/api/sessions/abc123/refresh")
	require.Equal(t, http.StatusInternalServerError, status)
	require.False(t, payload.Success)
	require.Equal(t, "INTERNAL_SERVER_ERROR", payload.Error.Code)
	require.NotContains(t, payload.Error.Message, "abc123")
}

func TestNotFoundHandlerNamesRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.NoRoute(NotFoundHandler)

	status, payload := serveJSON(t, r, http.MethodDelete, "/api/sessions")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", payload.Error.Code)
	require.Equal(t, "route /api/sessions not found", payload.Error.Message)
}
