package email

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

type sesAPI interface {
	SendEmail(context.Context, *sesv2.SendEmailInput, ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers mail through Amazon SES v2.
type SESSender struct {
	client sesAPI
	cfg    Config
}

var _ Sender = (*SESSender)(nil)

func NewSESSender(client sesAPI, cfg Config) *SESSender {
	return &SESSender{client: client, cfg: cfg}
}

func (s *SESSender) Configured() bool {
	return s.client != nil && s.cfg.Enabled && strings.TrimSpace(s.cfg.From) != ""
}

func (s *SESSender) Send(ctx context.Context, m Message) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	to := cleanAddrs(m.To)
	if len(to) == 0 {
		return invalidMessage("at least one recipient is required")
	}
	subj := strings.TrimSpace(m.Subject)
	if subj == "" {
		return invalidMessage("subject is required")
	}

	body := &types.Body{}
	if strings.TrimSpace(m.TextBody) != "" {
		body.Text = utf8Content(m.TextBody)
	}
	if strings.TrimSpace(m.HTMLBody) != "" {
		body.Html = utf8Content(m.HTMLBody)
	}
	if body.Text == nil && body.Html == nil {
		return invalidMessage("either TextBody or HTMLBody is required")
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.cfg.From),
		Destination: &types.Destination{
			ToAddresses:  to,
			CcAddresses:  cleanAddrs(m.CC),
			BccAddresses: cleanAddrs(m.BCC),
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: utf8Content(subj),
				Body:    body,
			},
		},
	}
	if s.cfg.SESConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(s.cfg.SESConfigurationSet)
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return &DeliveryError{Provider: "aws/sesv2", Err: err}
	}
	return nil
}

func utf8Content(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String("UTF-8")}
}
