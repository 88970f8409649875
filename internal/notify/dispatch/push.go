// internal/notify/dispatch/push.go
package dispatch

import (
	"context"
	"fmt"

	httpclient "github.com/druids/gonotify/internal/common/http"
	"github.com/druids/gonotify/internal/common/logger"
)

// pushMessage is the JSON body posted to the push gateway.
type pushMessage struct {
	NotificationID string                 `json:"notificationId"`
	Recipient      string                 `json:"recipient"`
	Title          string                 `json:"title"`
	Text           string                 `json:"text"`
	TriggerAction  string                 `json:"triggerAction,omitempty"`
	Level          string                 `json:"level"`
	ExtraData      map[string]interface{} `json:"extraData,omitempty"`
}

// PushDispatcher posts notifications to an HTTP push gateway. Notifications
// without the push flag are skipped, honoring the admin template's setting.
type PushDispatcher struct {
	client   *httpclient.Client
	endpoint string
	log      logger.Logger
}

func NewPushDispatcher(client *httpclient.Client, endpoint string, log logger.Logger) *PushDispatcher {
	return &PushDispatcher{
		client:   client,
		endpoint: endpoint,
		log:      log.WithFields(map[string]interface{}{"dispatcher": "push"}),
	}
}

func (d *PushDispatcher) Name() string { return "push" }

func (d *PushDispatcher) Dispatch(ctx context.Context, n Notification) error {
	if !n.SendPush {
		d.log.Debug("push disabled for notification", map[string]interface{}{
			"notificationId": n.ID,
		})
		return nil
	}

	msg := pushMessage{
		NotificationID: n.ID,
		Recipient:      n.Recipient,
		Title:          n.Title,
		Text:           n.Text,
		TriggerAction:  n.TriggerAction,
		Level:          n.Level,
		ExtraData:      n.ExtraData,
	}
	if err := d.client.PostJSON(ctx, d.endpoint, msg); err != nil {
		return fmt.Errorf("post push message: %w", err)
	}

	d.log.Info("push dispatched", map[string]interface{}{
		"notificationId": n.ID,
	})
	return nil
}
