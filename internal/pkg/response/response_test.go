package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, fn func(c *gin.Context)) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestSuccessEnvelope(t *testing.T) {
	code, body := record(t, func(c *gin.Context) {
		Success(c, http.StatusOK, gin.H{"open": true})
	})

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"open": true}, body["data"])
}

func TestErrorEnvelopeOmitsDetails(t *testing.T) {
	code, body := record(t, func(c *gin.Context) {
		Error(c, http.StatusConflict, "OUT_OF_STOCK", "Not enough tickets remaining")
	})

	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, body["success"])
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "OUT_OF_STOCK", errBody["code"])
	assert.Equal(t, "Not enough tickets remaining", errBody["message"])
	assert.NotContains(t, errBody, "details")
}

func TestErrorWithDetailsCarriesPayload(t *testing.T) {
	_, body := record(t, func(c *gin.Context) {
		ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body",
			map[string]string{"title": "required"})
	})

	errBody := body["error"].(map[string]any)
	assert.Equal(t, map[string]any{"title": "required"}, errBody["details"])
}
