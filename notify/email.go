package notify

import (
	"context"
	"errors"
	"fmt"
	"html"

	brevo "github.com/getbrevo/brevo-go/lib"

	"github.com/amartya2002/uptime-monitor/uptime"
)

// Email sends alerts as Brevo transactional e-mails.
type Email struct {
	client   *brevo.APIClient
	from     string
	fromName string
}

type EmailOption func(*brevo.Configuration)

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(u string) EmailOption {
	return func(cfg *brevo.Configuration) { cfg.BasePath = u }
}

func NewEmail(apiKey, from, fromName string, opts ...EmailOption) (*Email, error) {
	if apiKey == "" {
		return nil, errors.New("brevo api key is required")
	}
	if from == "" {
		return nil, errors.New("sender address is required")
	}
	if fromName == "" {
		fromName = "Uptime Monitor"
	}
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	for _, opt := range opts {
		opt(cfg)
	}
	return &Email{client: brevo.NewAPIClient(cfg), from: from, fromName: fromName}, nil
}

func (e *Email) Send(ctx context.Context, address string, msg uptime.Message) error {
	body := msg.Body()
	email := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  e.fromName,
			Email: e.from,
		},
		To: []brevo.SendSmtpEmailTo{
			{
				Email: address,
			},
		},
		Subject:     msg.Subject(),
		HtmlContent: fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
		TextContent: body,
	}

	_, _, err := e.client.TransactionalEmailsApi.SendTransacEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send email via Brevo: %w", err)
	}
	return nil
}
