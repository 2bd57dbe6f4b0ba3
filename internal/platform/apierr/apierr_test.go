package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageHidesCause(t *testing.T) {
	cause := errors.New("pq: relation \"contacts\" does not exist")
	e := Storage(cause)

	assert.Equal(t, http.StatusInternalServerError, e.Status)
	assert.Equal(t, CodeInternal, e.Code)
	assert.NotContains(t, e.PublicMessage(), "relation")
	assert.ErrorIs(t, e, cause)
}

func TestAsFindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("submit ratings: %w", NotFound("Contacto no encontrado"))

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.True(t, Is(wrapped, CodeNotFound))
	assert.False(t, Is(wrapped, CodeValidation))
}

func TestValidationKeepsEveryField(t *testing.T) {
	e := Validation([]FieldError{
		{Field: "nombre", Message: "too short"},
		{Field: "telefono", Message: "bad format"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, e.Status)
	assert.Len(t, e.Fields, 2)
	assert.Equal(t, "Error de validación", e.PublicMessage())
}

func TestInvalidCredentialsMessage(t *testing.T) {
	assert.Equal(t, "Credenciales incorrectas", InvalidCredentials().PublicMessage())
}

func TestPayloadTooLargeKeepsCause(t *testing.T) {
	cause := &http.MaxBytesError{Limit: 10}
	e := PayloadTooLarge(cause)

	assert.Equal(t, http.StatusRequestEntityTooLarge, e.Status)
	assert.True(t, Is(e, CodePayloadTooLarge))
	var mbe *http.MaxBytesError
	require.ErrorAs(t, e, &mbe)
	assert.EqualValues(t, 10, mbe.Limit)
}
