package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,max=99"`
	Note      string `json:"note" validate:"max=5"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(addItemRequest{ProductID: "p-1", Quantity: 2})
	assert.NoError(t, err)
}

func TestValidate_MissingRequiredUsesJSONName(t *testing.T) {
	err := Validate(addItemRequest{Quantity: 1})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["product_id"])
}

func TestValidate_NumericAndStringBounds(t *testing.T) {
	err := Validate(addItemRequest{ProductID: "p-1", Quantity: 120, Note: "too long"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must be at most 99", fields["quantity"])
	assert.Equal(t, "must be at most 5 characters", fields["note"])
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(addItemRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'product_id'")
	assert.Contains(t, err.Error(), "is required")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"p-1","quantity":3}`))

	var dst addItemRequest
	err := DecodeAndValidate(req, &dst)

	require.NoError(t, err)
	assert.Equal(t, "p-1", dst.ProductID)
	assert.Equal(t, 3, dst.Quantity)
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))

	var dst addItemRequest
	err := DecodeAndValidate(req, &dst)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_UnknownField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"p","quantity":1,"price":1}`))

	var dst addItemRequest
	err := DecodeAndValidate(req, &dst)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestDecodeAndValidate_ValidationFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"p","quantity":0}`))

	var dst addItemRequest
	err := DecodeAndValidate(req, &dst)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields(), "quantity")
}
