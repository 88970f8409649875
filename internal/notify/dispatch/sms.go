// internal/notify/dispatch/sms.go
package dispatch

import (
	"context"
	"fmt"

	"github.com/druids/gonotify/internal/common/aws"
	"github.com/druids/gonotify/internal/common/logger"
)

// SMSDispatcher delivers notifications over SNS.
type SMSDispatcher struct {
	sns      *aws.SNSClient
	contacts ContactProvider
	senderID string
	log      logger.Logger
}

func NewSMSDispatcher(sns *aws.SNSClient, contacts ContactProvider, senderID string, log logger.Logger) *SMSDispatcher {
	return &SMSDispatcher{
		sns:      sns,
		contacts: contacts,
		senderID: senderID,
		log:      log.WithFields(map[string]interface{}{"dispatcher": "sms"}),
	}
}

func (d *SMSDispatcher) Name() string { return "sms" }

func (d *SMSDispatcher) Dispatch(ctx context.Context, n Notification) error {
	_, phone, err := d.contacts.Contact(ctx, n.Recipient)
	if err != nil {
		return fmt.Errorf("resolve recipient %s: %w", n.Recipient, err)
	}
	if phone == "" {
		d.log.Debug("recipient has no phone number", map[string]interface{}{
			"notificationId": n.ID,
			"recipient":      n.Recipient,
		})
		return nil
	}

	if err := d.sns.SendSMS(ctx, phone, n.Title, d.senderID); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}

	d.log.Info("sms dispatched", map[string]interface{}{
		"notificationId": n.ID,
	})
	return nil
}
