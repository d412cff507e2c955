package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	xerrors "tipster-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", xerrors.NotFound("subscription 4 not found"), http.StatusNotFound, "subscription 4 not found"},
		{"transition", xerrors.InvalidTransition("already settled"), http.StatusConflict, "already settled"},
		{"validation", xerrors.Validation("reason too short"), http.StatusBadRequest, "reason too short"},
		{"conflict", xerrors.Conflict("duplicate reference"), http.StatusConflict, "duplicate reference"},
		{"internal", xerrors.Internal("approval did not complete", errors.New("pq: deadlock")), http.StatusInternalServerError, "approval did not complete"},
		{"raw", errors.New("dial tcp: refused"), http.StatusInternalServerError, xerrors.ErrInternal.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			FromError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.True(t, c.IsAborted())

			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
			assert.NotContains(t, w.Body.String(), "deadlock")
			assert.NotContains(t, w.Body.String(), "refused")
		})
	}
}

func TestFailEnvelopes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Forbidden(c, "insufficient permissions", gin.H{"required_roles": []string{"admin"}})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, c.IsAborted())
	assert.JSONEq(t, `{"success":false,"message":"insufficient permissions","error":"forbidden","data":{"required_roles":["admin"]}}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	TooManyRequests(c, "slow down")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"rate_limited"`)
}
