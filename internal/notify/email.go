package notify

import (
	"context"
	"fmt"
	"strings"

	mail "gopkg.in/mail.v2"

	"jobradar/internal/model"
)

// EmailNotifier sends the digest as a plain-text email over SMTP.
type EmailNotifier struct {
	dialer *mail.Dialer
	from   string
	to     string
}

// NewEmailNotifier configures an SMTP digest sender.
func NewEmailNotifier(host string, port int, username, password, from, to string) *EmailNotifier {
	return &EmailNotifier{
		dialer: mail.NewDialer(host, port, username, password),
		from:   from,
		to:     to,
	}
}

// Notify formats the candidates into one email and sends it. The context is
// checked before dialing; gomail itself does not take one.
func (n *EmailNotifier) Notify(ctx context.Context, candidates []model.Candidate, label string) error {
	if len(candidates) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", fmt.Sprintf("jobradar: %d new %s-tier postings", len(candidates), label))
	m.SetBody("text/plain", formatDigest(candidates))

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send digest email: %w", err)
	}
	return nil
}

func formatDigest(candidates []model.Candidate) string {
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. [%d] %s", i+1, c.QualityScore, c.Title)
		if c.Company != "" {
			fmt.Fprintf(&b, " — %s", c.Company)
		}
		if c.Location != "" {
			fmt.Fprintf(&b, " (%s)", c.Location)
		}
		fmt.Fprintf(&b, "\n   %s\n", c.Link)
	}
	return b.String()
}
