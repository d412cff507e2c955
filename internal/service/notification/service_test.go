package notification

import (
	"context"
	"testing"

	"tipster-service/internal/domain/notification"
	wstypes "tipster-service/internal/domain/websocket"
	ws "tipster-service/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingFeed struct {
	accept bool
	sent   []ws.Envelope
}

func (f *recordingFeed) Publish(env ws.Envelope) bool {
	if !f.accept {
		return false
	}
	f.sent = append(f.sent, env)
	return true
}

func TestNotifyTargetsUserAndAdmins(t *testing.T) {
	feed := &recordingFeed{accept: true}
	svc := NewNotificationService(feed, zap.NewNop())

	svc.Notify(context.Background(), notification.Notification{
		Type:       notification.TypePaymentSubmitted,
		IdentityID: 7,
		Admins:     true,
		EntityID:   3,
		Title:      "Payment submitted",
	})

	require.Len(t, feed.sent, 2)
	assert.Equal(t, []int64{7}, feed.sent[0].UserIDs)
	assert.Equal(t, wstypes.ChannelSubscriptions, feed.sent[0].Channel)
	assert.True(t, feed.sent[1].AdminsOnly)
	assert.Equal(t, wstypes.ChannelAdmin, feed.sent[1].Channel)
	assert.Equal(t, wstypes.ChannelAdmin, feed.sent[1].Frame.Channel)

	data, ok := feed.sent[0].Frame.Data.(*wstypes.NotificationData)
	require.True(t, ok)
	assert.Equal(t, "subscription.payment_submitted", data.Kind)
	assert.False(t, data.CreatedAt.IsZero())
}

func TestNotifyBroadcastUsesBetslipChannel(t *testing.T) {
	feed := &recordingFeed{accept: true}
	svc := NewNotificationService(feed, zap.NewNop())

	svc.Notify(context.Background(), notification.Notification{Type: notification.TypeBetslipSettled, Broadcast: true})

	require.Len(t, feed.sent, 1)
	assert.Nil(t, feed.sent[0].UserIDs)
	assert.Equal(t, wstypes.ChannelBetslips, feed.sent[0].Channel)
}

func TestNotifyDropsWhenFeedIsFull(t *testing.T) {
	feed := &recordingFeed{accept: false}
	svc := NewNotificationService(feed, zap.NewNop())

	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), notification.Notification{Type: notification.TypeSubscriptionApproved, IdentityID: 1})
	})
	assert.Empty(t, feed.sent)
}
