// Package mailer sends transactional mail. The Sendgrid implementation is
// used in production; the log implementation stands in for environments
// without an API key.
package mailer

import "context"

// Message is one outbound mail.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	TextBody  string
	HTMLBody  string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
