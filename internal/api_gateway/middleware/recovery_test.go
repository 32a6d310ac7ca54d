package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("panic becomes internal error with correlation id", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))

		router := gin.New()
		router.Use(CorrelationID(), Recovery(log))
		router.GET("/boom", func(c *gin.Context) {
			panic("ledger exploded")
		})

		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		req.Header.Set(CorrelationIDHeader, "corr-panic")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)

		var body struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
			CorrelationID string `json:"correlation_id"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
		assert.Equal(t, "corr-panic", body.CorrelationID)

		assert.Contains(t, buf.String(), "Panic recovered")
		assert.Contains(t, buf.String(), "ledger exploded")
		assert.Contains(t, buf.String(), `"correlation_id":"corr-panic"`)
	})

	t.Run("no panic passes through", func(t *testing.T) {
		router := gin.New()
		router.Use(Recovery(slog.New(slog.NewJSONHandler(io.Discard, nil))))
		router.GET("/ok", func(c *gin.Context) {
			c.String(http.StatusOK, "fine")
		})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "fine", rr.Body.String())
	})
}
