package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestKindMapping(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
		code   codes.Code
	}{
		{BadRequest("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{Conflict("dup"), http.StatusConflict, codes.AlreadyExists},
		{NotFound("missing"), http.StatusNotFound, codes.NotFound},
		{Unprocessable("invalid"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{Internal("boom"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode())
			assert.Equal(t, tt.code, tt.err.GRPCCode())
		})
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	assert.Nil(t, From(nil))

	cause := errors.New("disk on fire")
	appErr := From(cause)
	assert.Equal(t, KindInternal, appErr.Kind())
	assert.ErrorIs(t, appErr, cause)

	nf := NotFound("supplier not found")
	wrapped := fmt.Errorf("load: %w", nf)
	assert.Same(t, nf, From(wrapped))
}

func TestValidationCarriesFieldErrors(t *testing.T) {
	appErr := Validation(map[string][]string{"document": {"the document has already been taken"}})

	assert.Equal(t, KindUnprocessableEntity, appErr.Kind())
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.StatusCode())
	assert.Equal(t, []string{"the document has already been taken"}, appErr.FieldErrors()["document"])
	assert.Contains(t, appErr.Details(), "errors")
}

func TestDetailsAndCause(t *testing.T) {
	cause := errors.New("upstream")
	appErr := NotFound("CNPJ not found in the federal registry",
		WithDetail("document", "123"),
		WithDetails(map[string]any{"source": "brasilapi"}),
		WithCause(cause),
	)

	assert.Equal(t, "123", appErr.Details()["document"])
	assert.Equal(t, "brasilapi", appErr.Details()["source"])
	assert.Equal(t, "CNPJ not found in the federal registry: upstream", appErr.Error())
	assert.Nil(t, appErr.FieldErrors())

	var nilErr *AppError
	assert.Equal(t, KindInternal, nilErr.Kind())
	assert.Equal(t, http.StatusInternalServerError, nilErr.StatusCode())
}
