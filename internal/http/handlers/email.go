package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/contactos-backend/internal/http/response"
	"github.com/yungbote/contactos-backend/internal/platform/apierr"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
	"github.com/yungbote/contactos-backend/internal/services"
)

const maxEmailForm = 12 << 20

type EmailHandler struct {
	log    *logger.Logger
	emails services.EmailService
}

func NewEmailHandler(log *logger.Logger, emailService services.EmailService) *EmailHandler {
	return &EmailHandler{log: log.With("handler", "EmailHandler"), emails: emailService}
}

// POST /api/contactos/send-email
// multipart: subject, message, recipients (JSON array or comma separated), attachments[]
func (h *EmailHandler) Send(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxEmailForm); err != nil {
		response.RespondAPIError(c, h.log, apierr.BadRequest("invalid_request", err))
		return
	}
	in := services.EmailInput{
		Subject:    c.PostForm("subject"),
		Message:    c.PostForm("message"),
		Recipients: parseRecipients(c.PostForm("recipients")),
	}

	form := c.Request.MultipartForm
	var files []*multipart.FileHeader
	if form != nil {
		files = append(files, form.File["attachments"]...)
		files = append(files, form.File["attachments[]"]...)
	}
	for _, fh := range files {
		att, err := readAttachment(fh)
		if err != nil {
			response.RespondAPIError(c, h.log, apierr.BadRequest("invalid_upload", err))
			return
		}
		in.Attachments = append(in.Attachments, att)
	}

	if err := h.emails.Send(c.Request.Context(), in); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Email enviado correctamente"})
}

func parseRecipients(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var list []string
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &list) == nil {
		return list
	}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func readAttachment(fh *multipart.FileHeader) (services.EmailAttachment, error) {
	f, err := fh.Open()
	if err != nil {
		return services.EmailAttachment{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return services.EmailAttachment{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return services.EmailAttachment{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
