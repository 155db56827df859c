package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/fornecedor/pkg/errorbank"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return e.NewContext(req, rec), rec
}

func TestBuildSuccessWritesDataUnwrapped(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, New(c).WithStatus(http.StatusCreated).WithData(map[string]int{"id": 7}).Build())

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":7}`, rec.Body.String())
}

func TestBuildSuccessWithoutData(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, New(c).WithStatus(http.StatusNoContent).Build())

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestBuildValidationError(t *testing.T) {
	c, rec := newContext()

	err := errorbank.Validation(map[string][]string{"document": {"The document has already been taken."}})
	require.NoError(t, New(c).WithError(err).Build())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{
		"message": "the given data was invalid",
		"kind": "unprocessable_entity",
		"errors": {"document": ["The document has already been taken."]}
	}`, rec.Body.String())
}

func TestBuildNotFoundWithDetail(t *testing.T) {
	c, rec := newContext()

	err := errorbank.NotFound("CNPJ not found in the federal registry", errorbank.WithDetail("document", "12345678000195"))
	require.NoError(t, New(c).WithError(err).Build())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{
		"message": "CNPJ not found in the federal registry",
		"kind": "not_found",
		"document": "12345678000195"
	}`, rec.Body.String())
}

func TestBuildUnknownErrorIsInternal(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, New(c).WithError(errors.New("boom")).Build())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"internal error","kind":"internal"}`, rec.Body.String())
}

func TestBuildErrorKeepsExplicitErrorStatus(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, New(c).WithStatus(http.StatusServiceUnavailable).WithError(errors.New("down")).Build())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
