// internal/service/notification/service.go
package notification

import (
	"context"
	"strings"
	"time"

	"tipster-service/internal/domain/notification"
	wstypes "tipster-service/internal/domain/websocket"
	ws "tipster-service/internal/websocket"

	"go.uber.org/zap"
)

// Publisher is the live feed the service pushes to; *websocket.Hub satisfies it.
type Publisher interface {
	Publish(env ws.Envelope) bool
}

// NotificationService turns lifecycle and settlement events into websocket
// pushes. It never blocks the caller: a full feed drops the event.
type NotificationService struct {
	feed   Publisher
	logger *zap.Logger
}

func NewNotificationService(feed Publisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		feed:   feed,
		logger: logger,
	}
}

// Notify implements notification.Notifier.
func (s *NotificationService) Notify(_ context.Context, n notification.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	data := &wstypes.NotificationData{
		Kind:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		EntityID:  n.EntityID,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	}
	channel := channelFor(n.Type)

	if n.Broadcast {
		s.publish(n, ws.Envelope{Channel: channel, Frame: wstypes.NewFrame(wstypes.EventNotification, channel, data)})
		return
	}
	if n.IdentityID != 0 {
		s.publish(n, ws.Envelope{
			UserIDs: []int64{n.IdentityID},
			Channel: channel,
			Frame:   wstypes.NewFrame(wstypes.EventNotification, channel, data),
		})
	}
	if n.Admins {
		s.publish(n, ws.Envelope{
			AdminsOnly: true,
			Channel:    wstypes.ChannelAdmin,
			Frame:      wstypes.NewFrame(wstypes.EventNotification, wstypes.ChannelAdmin, data),
		})
	}
}

func (s *NotificationService) publish(n notification.Notification, env ws.Envelope) {
	if !s.feed.Publish(env) {
		s.logger.Warn("notification feed full, event dropped",
			zap.String("type", string(n.Type)),
			zap.Int64("entity_id", n.EntityID),
		)
	}
}

func channelFor(t notification.Type) wstypes.Channel {
	if strings.HasPrefix(string(t), "betslip.") {
		return wstypes.ChannelBetslips
	}
	return wstypes.ChannelSubscriptions
}
