package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/contactos-backend/internal/platform/apierr"
	"github.com/yungbote/contactos-backend/internal/platform/ctxutil"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ValidationEnvelope is the 422 body: one entry per violated field.
type ValidationEnvelope struct {
	Detail string              `json:"detail"`
	Errors []apierr.FieldError `json:"errors"`
}

// RespondAPIError maps service errors onto HTTP. Causes of 5xx errors are
// logged and never written to the body.
func RespondAPIError(c *gin.Context, log *logger.Logger, err error) {
	ae, ok := apierr.As(err)
	if !ok {
		ae = apierr.Storage(err)
	}

	if ae.Status >= http.StatusInternalServerError && log != nil {
		fields := []interface{}{"code", ae.Code, "status", ae.Status, "error", err, "path", c.Request.URL.Path}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		log.Error("Request failed", fields...)
	}

	if ae.Code == apierr.CodeValidation {
		fields := ae.Fields
		if fields == nil {
			fields = []apierr.FieldError{}
		}
		c.AbortWithStatusJSON(ae.Status, ValidationEnvelope{Detail: ae.PublicMessage(), Errors: fields})
		return
	}
	c.AbortWithStatusJSON(ae.Status, ErrorEnvelope{
		Error: APIError{
			Message: ae.PublicMessage(),
			Code:    ae.Code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
