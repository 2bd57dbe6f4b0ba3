package services

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/yungbote/contactos-backend/internal/platform/apierr"
	"github.com/yungbote/contactos-backend/internal/platform/ctxutil"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
	"github.com/yungbote/contactos-backend/internal/platform/sendgrid"
)

const maxAttachmentBytes = 10 << 20

type EmailAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type EmailInput struct {
	Subject     string            `json:"subject" validate:"required,max=200"`
	Message     string            `json:"message" validate:"required"`
	Recipients  []string          `json:"recipients" validate:"required,min=1,max=50,dive,required,email"`
	Attachments []EmailAttachment `json:"-"`
}

type EmailService interface {
	Send(ctx context.Context, in EmailInput) error
}

type emailService struct {
	log    *logger.Logger
	client sendgrid.Client
}

// NewEmailService accepts a nil client; Send then reports the mailer as unavailable.
func NewEmailService(log *logger.Logger, client sendgrid.Client) EmailService {
	return &emailService{
		log:    log.With("service", "EmailService"),
		client: client,
	}
}

func (s *emailService) Send(ctx context.Context, in EmailInput) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return apierr.Unauthorized(fmt.Errorf("not authenticated"))
	}

	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	recipients := make([]string, 0, len(in.Recipients))
	for _, r := range in.Recipients {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	if recipients == nil {
		recipients = []string{}
	}
	in.Recipients = recipients

	violations := fieldViolations(&in)
	var total int
	for _, a := range in.Attachments {
		total += len(a.Data)
	}
	if total > maxAttachmentBytes {
		violations = append(violations, apierr.FieldError{
			Field:   "attachments",
			Message: "Los adjuntos superan el tamaño máximo de 10 MB",
		})
	}
	if len(violations) > 0 {
		return apierr.Validation(violations)
	}
	if s.client == nil {
		return apierr.Unavailable("email_unavailable", "El servicio de correo no está configurado")
	}

	req := sendgrid.SendEmailRequest{
		Subject:    in.Subject,
		Text:       in.Message,
		HTML:       "<p>" + strings.ReplaceAll(html.EscapeString(in.Message), "\n", "<br>") + "</p>",
		Categories: []string{"contactos"},
	}
	if rd.Email != "" {
		req.ReplyTo = &sendgrid.EmailAddress{Email: rd.Email, Name: rd.Username}
	}
	for _, r := range in.Recipients {
		req.To = append(req.To, sendgrid.EmailAddress{Email: r})
	}
	for _, a := range in.Attachments {
		req.Attachments = append(req.Attachments, sendgrid.Attachment{
			Filename: a.Filename,
			MIMEType: a.ContentType,
			Content:  a.Data,
		})
	}

	if _, err := s.client.Send(ctx, req); err != nil {
		s.log.Error("Email send failed", "error", err, "recipients_count", len(in.Recipients))
		return &apierr.Error{
			Status:  http.StatusBadGateway,
			Code:    "email_failed",
			Message: "No se pudo enviar el correo",
			Err:     err,
		}
	}
	return nil
}
