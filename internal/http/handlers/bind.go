package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/contactos-backend/internal/domain"
	"github.com/yungbote/contactos-backend/internal/platform/apierr"
)

// bindError classifies a body decoding failure. Bodies cut off by the size cap
// become 413; anything else is a malformed request.
func bindError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return apierr.PayloadTooLarge(err)
	}
	return apierr.BadRequest("invalid_request", err)
}

// bindRatings decodes the ratings array one item at a time so that a value of
// the wrong JSON type is reported against ratings[i].<field> instead of failing
// the whole request.
func bindRatings(c *gin.Context) ([]types.RatingInput, error) {
	var raw []json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) {
			return nil, apierr.Field("ratings", "Debe ser una lista de calificaciones")
		}
		return nil, bindError(err)
	}

	out := make([]types.RatingInput, len(raw))
	var violations []apierr.FieldError
	for i, item := range raw {
		if err := json.Unmarshal(item, &out[i]); err != nil {
			var ute *json.UnmarshalTypeError
			if !errors.As(err, &ute) {
				return nil, apierr.BadRequest("invalid_request", err)
			}
			field := fmt.Sprintf("ratings[%d]", i)
			if ute.Field != "" {
				field += "." + ute.Field
			}
			violations = append(violations, apierr.FieldError{Field: field, Message: "Tipo de dato inválido"})
		}
	}
	if len(violations) > 0 {
		return nil, apierr.Validation(violations)
	}
	return out, nil
}
