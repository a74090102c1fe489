package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adjustPayload struct {
	UserID int    `validate:"required"`
	Amount int    `validate:"required,min=1"`
	Type   string `validate:"required,oneof=credit debit"`
}

func TestValidateStruct(t *testing.T) {
	errs := ValidateStruct(adjustPayload{UserID: 10, Amount: 5, Type: "credit"})
	assert.Empty(t, errs)

	errs = ValidateStruct(adjustPayload{Amount: 0, Type: "refund"})
	require.Len(t, errs, 3)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}

	assert.Equal(t, "required", byField["UserID"].Tag)
	assert.Contains(t, byField["Type"].Message, "must be one of")
}

func TestRespondWithValidationErrors(t *testing.T) {
	router := gin.New()
	router.POST("/validate", func(c *gin.Context) {
		errs := ValidateStruct(adjustPayload{})
		RespondWithValidationErrors(c, errs)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/validate", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation failed")
}
