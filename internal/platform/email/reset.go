package email

import (
	"context"
	"fmt"
	"time"
)

// ResetNotifier sends password reset links through a Mailer.
type ResetNotifier struct {
	Mailer Mailer
	From   string
	TTL    time.Duration
}

func NewResetNotifier(mailer Mailer, from string, ttl time.Duration) *ResetNotifier {
	return &ResetNotifier{Mailer: mailer, From: from, TTL: ttl}
}

func (n *ResetNotifier) SendResetEmail(ctx context.Context, to, link string) error {
	return n.Mailer.Send(ctx, n.From, to, "Reset your password", resetBody(link, n.TTL))
}

func resetBody(link string, ttl time.Duration) string {
	minutes := int(ttl.Minutes())
	if minutes <= 0 {
		minutes = 15
	}
	return fmt.Sprintf(`Hello,

We received a request to reset the password for your account.
Open the link below to choose a new password. It expires in %d minutes
and can only be used once.

%s

If you did not ask for this, you can ignore this email.
`, minutes, link)
}
