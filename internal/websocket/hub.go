// internal/websocket/hub.go
package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tipster-service/internal/domain/auth"
	wstypes "tipster-service/internal/domain/websocket"
	"tipster-service/internal/pkg/jwt"

	"go.uber.org/zap"
)

const queueSize = 256

var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier is satisfied by *jwt.Verifier.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

// Envelope addresses a frame. With no UserIDs and AdminsOnly unset it goes to
// every connection listening on Channel.
type Envelope struct {
	UserIDs    []int64
	AdminsOnly bool
	Channel    wstypes.Channel
	Frame      *wstypes.Frame
}

// Hub owns the set of live connections. Joins, leaves and deliveries are
// serialised through Run; the mutex only guards readers of the counters.
type Hub struct {
	mu    sync.RWMutex
	conns map[int64]map[*Client]struct{}

	joins   chan *Client
	leaves  chan *Client
	queue   chan Envelope
	stopped chan struct{}

	verifier TokenVerifier
	logger   *zap.Logger
}

func NewHub(verifier TokenVerifier, logger *zap.Logger) *Hub {
	return &Hub{
		conns:    make(map[int64]map[*Client]struct{}),
		joins:    make(chan *Client),
		leaves:   make(chan *Client),
		queue:    make(chan Envelope, queueSize),
		stopped:  make(chan struct{}),
		verifier: verifier,
		logger:   logger,
	}
}

// Authenticate resolves the token presented on connect to an actor and the
// token id.
func (h *Hub) Authenticate(token string) (auth.Actor, string, error) {
	if h.verifier == nil {
		return auth.Actor{}, "", ErrInvalidToken
	}
	claims, err := h.verifier.VerifyAccessToken(token)
	if err != nil {
		return auth.Actor{}, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.Actor(), claims.ID, nil
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.stopped)
			h.closeAll()
			return
		case c := <-h.joins:
			h.add(c)
		case c := <-h.leaves:
			h.remove(c)
		case env := <-h.queue:
			h.deliver(env)
		}
	}
}

// Join hands a freshly upgraded client to the hub. It reports false once the
// hub has stopped.
func (h *Hub) Join(c *Client) bool {
	select {
	case h.joins <- c:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.leaves <- c:
	case <-h.stopped:
	}
}

// Publish queues env without blocking and reports false when it was dropped.
func (h *Hub) Publish(env Envelope) bool {
	select {
	case h.queue <- env:
		return true
	default:
		return false
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	byUser := h.conns[c.actor.ID]
	if byUser == nil {
		byUser = make(map[*Client]struct{})
		h.conns[c.actor.ID] = byUser
	}
	byUser[c] = struct{}{}
	total := h.count()
	h.mu.Unlock()

	if c.actor.IsAdmin() {
		c.channels.add(wstypes.ChannelAdmin)
	}

	h.logger.Info("websocket client joined",
		zap.Int64("identity_id", c.actor.ID),
		zap.String("token_id", c.tokenID),
		zap.Int("connections", total),
	)
	c.send(wstypes.NewFrame(wstypes.EventConnected, "", map[string]any{
		"identity_id": c.actor.ID,
		"channels":    c.channels.list(),
	}))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	byUser, ok := h.conns[c.actor.ID]
	if ok {
		if _, ok = byUser[c]; ok {
			delete(byUser, c)
			if len(byUser) == 0 {
				delete(h.conns, c.actor.ID)
			}
		}
	}
	total := h.count()
	h.mu.Unlock()

	if !ok {
		return
	}
	c.Close()
	h.logger.Info("websocket client left",
		zap.Int64("identity_id", c.actor.ID),
		zap.Int("connections", total),
	)
}

func (h *Hub) deliver(env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	push := func(c *Client) {
		if env.AdminsOnly && !c.actor.IsAdmin() {
			return
		}
		if c.channels.has(env.Channel) {
			c.send(env.Frame)
		}
	}

	if len(env.UserIDs) > 0 {
		for _, id := range env.UserIDs {
			for c := range h.conns[id] {
				push(c)
			}
		}
		return
	}
	for _, byUser := range h.conns {
		for c := range byUser {
			push(c)
		}
	}
}

// Connections is the number of open sockets.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count()
}

// ConnectionsFor is the number of open sockets of one user.
func (h *Hub) ConnectionsFor(identityID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[identityID])
}

func (h *Hub) count() int {
	n := 0
	for _, byUser := range h.conns {
		n += len(byUser)
	}
	return n
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, byUser := range h.conns {
		for c := range byUser {
			c.Close()
		}
	}
	h.conns = make(map[int64]map[*Client]struct{})
}
