// internal/domain/websocket/types.go
package websocket

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Channel groups server pushes so a client can mute feeds it does not want.
type Channel string

const (
	ChannelSubscriptions Channel = "subscriptions"
	ChannelBetslips      Channel = "betslips"
	// ChannelAdmin carries the review queue and is restricted to admins.
	ChannelAdmin Channel = "admin"
)

// DefaultChannels are joined on connect.
var DefaultChannels = []Channel{ChannelSubscriptions, ChannelBetslips}

// Event names a server to client frame.
type Event string

const (
	EventConnected    Event = "connected"
	EventPong         Event = "pong"
	EventSubscribed   Event = "subscribed"
	EventUnsubscribed Event = "unsubscribed"
	EventNotification Event = "notification"
	EventError        Event = "error"
)

// Command names a client to server frame.
type Command string

const (
	CommandPing        Command = "ping"
	CommandSubscribe   Command = "subscribe"
	CommandUnsubscribe Command = "unsubscribe"
)

// Frame is what the server writes to a socket.
type Frame struct {
	ID      string    `json:"id"`
	Event   Event     `json:"type"`
	Channel Channel   `json:"channel,omitempty"`
	Data    any       `json:"data,omitempty"`
	SentAt  time.Time `json:"timestamp"`
}

func NewFrame(event Event, channel Channel, data any) *Frame {
	return &Frame{
		ID:      ulid.Make().String(),
		Event:   event,
		Channel: channel,
		Data:    data,
		SentAt:  time.Now().UTC(),
	}
}

// Request is what a client may send. Only subscribe and unsubscribe carry
// channels.
type Request struct {
	Command  Command   `json:"type"`
	Channels []Channel `json:"channels,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NotificationData is the payload of a notification frame.
type NotificationData struct {
	Kind      string         `json:"kind"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	EntityID  int64          `json:"entity_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
