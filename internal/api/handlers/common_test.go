package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/floatbank/floatbank/internal/audit"
	"github.com/floatbank/floatbank/internal/response"
	"github.com/floatbank/floatbank/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantType string
	}{
		{"validation", service.Invalid("email", "The email has already been taken."), http.StatusUnprocessableEntity, response.ErrorTypeValidation},
		{"not found", service.ErrNotFound, http.StatusNotFound, response.ErrorTypeNotFound},
		{"bulk not found", &service.NotFoundError{IDs: []uuid.UUID{uuid.New()}}, http.StatusNotFound, response.ErrorTypeNotFound},
		{"inverted range", audit.ErrInvalidRange, http.StatusBadRequest, response.ErrorTypeBadRequest},
		{"server", errors.New("disk on fire"), http.StatusInternalServerError, response.ErrorTypeServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			writeError(c, "Something failed", tt.err)

			var env response.Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantCode, env.Meta.Code)
			assert.False(t, env.Meta.Success)
			assert.Nil(t, env.Result)
			require.Len(t, env.Meta.Errors, 1)
			assert.Equal(t, tt.wantType, env.Meta.Errors[0].Type)
		})
	}
}

func TestWriteError_ServerCarriesErrorText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	writeError(c, "Failed to fetch users", errors.New("connection refused"))

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "Failed to fetch users", env.Meta.Message)
	assert.Equal(t, "connection refused", env.Meta.Errors[0].Message)
}

func TestParseIDs(t *testing.T) {
	self := uuid.New()
	other := uuid.New()

	ids, err := parseIDs([]string{other.String()}, self)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{other}, ids)

	for name, raw := range map[string][]string{
		"empty":     {},
		"malformed": {"nope"},
		"self":      {other.String(), self.String()},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseIDs(raw, self)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "ids", verr.Fields[0].Field)
		})
	}
}

func TestBindingFieldErrors_UsesWireNames(t *testing.T) {
	err := binding.Validator.ValidateStruct(&RegisterRequest{Email: "x", Password: "short"})
	fields := bindingFieldErrors(err)
	require.NotEmpty(t, fields)
	names := map[string]bool{}
	for _, f := range fields {
		names[f.Field] = true
	}
	assert.True(t, names["name"])
	assert.True(t, names["email"])
	assert.True(t, names["password_confirmation"])
}
