package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskorbit/taskorbit/internal/database"
)

func recordStorageError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondStorageError(c, err, "task", "test")
	return w
}

func TestRespondStorageError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", database.ErrNotFound, http.StatusNotFound},
		{"invalid input", database.ErrInvalidInput, http.StatusBadRequest},
		{"pool exhausted", fmt.Errorf("tasks.list: %w", database.ErrPoolExhausted), http.StatusServiceUnavailable},
		{"unclassified", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := recordStorageError(t, tc.err)
			assert.Equal(t, tc.wantCode, w.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestRespondStorageError_PoolExhaustedMessage(t *testing.T) {
	w := recordStorageError(t, fmt.Errorf("tasks.create: %w", database.ErrPoolExhausted))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "storage temporarily unavailable", body.Error)
}
