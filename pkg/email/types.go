package email

import "context"

type Message struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}

// Sender is implemented by the SMTP client and the SES sender.
type Sender interface {
	// Configured reports whether the sender can deliver at all.
	Configured() bool
	Send(ctx context.Context, m Message) error
}
