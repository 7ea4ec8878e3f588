package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarcrm/internal/domain"
)

type envelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func run(t *testing.T, h gin.HandlerFunc, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/?limit=500&offset=20", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h(c)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestFromError_Taxonomy(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("lead 1: %w", domain.ErrLeadAlreadyConverted), http.StatusConflict, "LEAD_ALREADY_CONVERTED"},
		{domain.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{domain.ErrUnauthorized, http.StatusForbidden, "UNAUTHORIZED"},
		{domain.ErrIncompleteDealTerms, http.StatusUnprocessableEntity, "INCOMPLETE_DEAL_TERMS"},
		{domain.ErrBelowMinimumPayout, http.StatusUnprocessableEntity, "BELOW_MINIMUM_PAYOUT"},
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("bad: %w", domain.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			w, env := run(t, func(c *gin.Context) { FromError(c, tc.err) }, "")
			assert.Equal(t, tc.status, w.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestFromError_PermissionDeniedKeepsContext(t *testing.T) {
	err := &domain.PermissionDeniedError{Collection: "projects", Operation: "update", Payload: "p1"}
	w, env := run(t, func(c *gin.Context) { FromError(c, err) }, "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PERMISSION_DENIED", env.Error.Code)
	assert.Equal(t, "projects", env.Error.Details["collection"])
	assert.Equal(t, "update", env.Error.Details["operation"])
}

type sample struct {
	Email string `json:"email" validate:"required,email"`
}

func TestBindJSON(t *testing.T) {
	var req sample
	w, env := run(t, func(c *gin.Context) { assert.False(t, BindJSON(c, &req)) }, "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_JSON", env.Error.Code)

	w, env = run(t, func(c *gin.Context) { assert.False(t, BindJSON(c, &req)) }, `{"email":"nope"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "Email")
}

func TestPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?limit=500&offset=20", nil)

	limit, offset := Page(c)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 20, offset)
}
