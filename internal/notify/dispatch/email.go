// internal/notify/dispatch/email.go
package dispatch

import (
	"context"
	"fmt"

	"github.com/druids/gonotify/internal/common/aws"
	"github.com/druids/gonotify/internal/common/logger"
)

// EmailDispatcher delivers notifications over SES.
type EmailDispatcher struct {
	ses      *aws.SESClient
	contacts ContactProvider
	from     string
	log      logger.Logger
}

func NewEmailDispatcher(ses *aws.SESClient, contacts ContactProvider, from string, log logger.Logger) *EmailDispatcher {
	return &EmailDispatcher{
		ses:      ses,
		contacts: contacts,
		from:     from,
		log:      log.WithFields(map[string]interface{}{"dispatcher": "email"}),
	}
}

func (d *EmailDispatcher) Name() string { return "email" }

func (d *EmailDispatcher) Dispatch(ctx context.Context, n Notification) error {
	email, _, err := d.contacts.Contact(ctx, n.Recipient)
	if err != nil {
		return fmt.Errorf("resolve recipient %s: %w", n.Recipient, err)
	}
	if email == "" {
		d.log.Debug("recipient has no email address", map[string]interface{}{
			"notificationId": n.ID,
			"recipient":      n.Recipient,
		})
		return nil
	}

	if err := d.ses.SendEmail(ctx, d.from, email, n.Title, n.Text); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	d.log.Info("email dispatched", map[string]interface{}{
		"notificationId": n.ID,
	})
	return nil
}
