package sendgrid

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yungbote/contactos-backend/internal/platform/ctxutil"
	"github.com/yungbote/contactos-backend/internal/platform/envutil"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

type Client interface {
	Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error)
}

type Config struct {
	APIKey           string
	BaseURL          string
	DefaultFromEmail string
	DefaultFromName  string
	Timeout          time.Duration
	MaxRetries       int
	RetryWait        time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:           strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
		BaseURL:          strings.TrimSpace(os.Getenv("SENDGRID_BASE_URL")),
		DefaultFromEmail: strings.TrimSpace(os.Getenv("SENDGRID_FROM_EMAIL")),
		DefaultFromName:  strings.TrimSpace(os.Getenv("SENDGRID_FROM_NAME")),
		Timeout:          envutil.Seconds("SENDGRID_TIMEOUT_SECONDS", 30*time.Second),
		MaxRetries:       envutil.Int("SENDGRID_MAX_RETRIES", 4),
	}
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = time.Second
	}

	clientLog := log.With("client", "SendGridClient")
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(isRetryable).
		AddRetryHook(func(resp *resty.Response, err error) {
			status := 0
			if resp != nil {
				status = resp.StatusCode()
			}
			clientLog.Warn("Sendgrid request retrying",
				"status", status,
				"max_retries", cfg.MaxRetries,
				"error", err,
			)
		})

	return &client{log: clientLog, cfg: cfg, http: rc}, nil
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *resty.Client
}

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

type SendEmailRequest struct {
	From        EmailAddress
	ReplyTo     *EmailAddress
	To          []EmailAddress
	Subject     string
	Text        string
	HTML        string
	Categories  []string
	Attachments []Attachment
}

type SendEmailResult struct {
	StatusCode int
	MessageID  string
}

// --- SendGrid mail send wire types ---
type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             EmailAddress      `json:"from"`
	ReplyTo          *EmailAddress     `json:"reply_to,omitempty"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
	Categories       []string          `json:"categories,omitempty"`
	Attachments      []sgAttachment    `json:"attachments,omitempty"`
}

type personalization struct {
	To []EmailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgAttachment struct {
	Content     string `json:"content"`
	Type        string `json:"type,omitempty"`
	Filename    string `json:"filename"`
	Disposition string `json:"disposition,omitempty"`
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	if strings.TrimSpace(req.From.Email) == "" {
		req.From.Email = c.cfg.DefaultFromEmail
		if strings.TrimSpace(req.From.Name) == "" {
			req.From.Name = c.cfg.DefaultFromName
		}
	}
	req.From.Email = strings.TrimSpace(req.From.Email)
	req.From.Name = strings.TrimSpace(req.From.Name)
	req.Subject = strings.TrimSpace(req.Subject)

	if req.From.Email == "" {
		return nil, fmt.Errorf("sendgrid: From.Email required (or set SENDGRID_FROM_EMAIL)")
	}
	if len(req.To) == 0 {
		return nil, fmt.Errorf("sendgrid: To required")
	}
	if req.Subject == "" {
		return nil, fmt.Errorf("sendgrid: Subject required")
	}

	contents := []mailContent{}
	if t := strings.TrimSpace(req.Text); t != "" {
		contents = append(contents, mailContent{Type: "text/plain", Value: t})
	}
	if h := strings.TrimSpace(req.HTML); h != "" {
		contents = append(contents, mailContent{Type: "text/html", Value: h})
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("sendgrid: Text or HTML content required")
	}

	atts, err := buildAttachments(req.Attachments)
	if err != nil {
		return nil, err
	}

	wire := mailSendRequest{
		Personalizations: []personalization{{To: req.To}},
		From:             req.From,
		ReplyTo:          req.ReplyTo,
		Subject:          req.Subject,
		Content:          contents,
		Categories:       req.Categories,
		Attachments:      atts,
	}

	resp, err := c.http.R().
		SetContext(ctxutil.Default(ctx)).
		SetBody(wire).
		Post("/v3/mail/send")
	if err != nil {
		return nil, fmt.Errorf("sendgrid request: %w", err)
	}
	if resp.IsError() {
		return nil, newHTTPError(resp.StatusCode(), resp.Body())
	}

	c.log.Info("Email sent", "recipients_count", len(req.To), "status", resp.StatusCode())
	return &SendEmailResult{
		StatusCode: resp.StatusCode(),
		MessageID:  strings.TrimSpace(resp.Header().Get("X-Message-Id")),
	}, nil
}

func buildAttachments(in []Attachment) ([]sgAttachment, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]sgAttachment, 0, len(in))
	for _, a := range in {
		fn := strings.TrimSpace(a.Filename)
		if fn == "" {
			return nil, fmt.Errorf("sendgrid: attachment filename required")
		}
		if len(a.Content) == 0 {
			return nil, fmt.Errorf("sendgrid: attachment %q missing content", fn)
		}
		out = append(out, sgAttachment{
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			Type:        strings.TrimSpace(a.MIMEType),
			Filename:    fn,
			Disposition: "attachment",
		})
	}
	return out, nil
}

func isRetryable(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

type errorItem struct {
	Message string `json:"message"`
	Field   any    `json:"field,omitempty"`
}

type errorResponse struct {
	Errors []errorItem `json:"errors"`
}

type HTTPError struct {
	StatusCode int
	Body       string
	Errors     []errorItem
}

func newHTTPError(status int, raw []byte) *HTTPError {
	he := &HTTPError{StatusCode: status, Body: string(raw)}
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && len(er.Errors) > 0 {
		he.Errors = er.Errors
	}
	return he
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "sendgrid: <nil error>"
	}
	if len(e.Errors) > 0 && strings.TrimSpace(e.Errors[0].Message) != "" {
		return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Errors[0].Message)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, msg)
}
