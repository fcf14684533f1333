package live

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"gigchat/internal/chat"
	"gigchat/internal/presence"
	"gigchat/internal/store"
)

// handshakeTimeout bounds how long a connection may sit unauthenticated.
const handshakeTimeout = 10 * time.Second

// Verifier resolves a bearer token to a user, failing closed.
type Verifier interface {
	Verify(ctx context.Context, token string) (*store.User, error)
}

// Coordinator upgrades connections, walks them through the
// handshake, registers presence, and mediates send/typing/read events
// between live sessions. Every connection goes
// connecting -> authenticating -> active -> closed; one that never
// reaches active leaves no presence side effects.
type Coordinator struct {
	registry *presence.Registry[*Session]
	chats    *chat.Service
	verifier Verifier
	log      *zerolog.Logger
}

// NewCoordinator builds a coordinator over the given collaborators.
func NewCoordinator(registry *presence.Registry[*Session], chats *chat.Service, verifier Verifier, logger *zerolog.Logger) *Coordinator {
	return &Coordinator{
		registry: registry,
		chats:    chats,
		verifier: verifier,
		log:      logger,
	}
}

func (c *Coordinator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		c.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	user, err := c.handshake(ctx, conn)
	if err != nil {
		c.log.Debug().Err(err).Msg("ws handshake rejected")
		conn.Close(websocket.StatusPolicyViolation, "authentication failed")
		return
	}

	session := NewSession(user.ID)
	c.registry.Register(user.ID, session)
	c.log.Info().Str("user_id", user.ID).Msg("user connected")
	c.broadcastOnlineUsers()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- c.readLoop(ctx, conn, session, user)
	}()
	go func() {
		errCh <- c.writeLoop(ctx, conn, session)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	// A newer connection for the same user may have superseded this one;
	// only the registry's current holder broadcasts the departure.
	if c.registry.Unregister(user.ID, session) {
		c.log.Info().Str("user_id", user.ID).Msg("user disconnected")
		c.broadcastOnlineUsers()
	}

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			c.log.Warn().Err(err).Str("user_id", user.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// handshake reads the mandatory first frame and verifies its token.
func (c *Coordinator) handshake(ctx context.Context, conn *websocket.Conn) (*store.User, error) {
	ctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	var inbound Inbound
	if err := wsjson.Read(ctx, conn, &inbound); err != nil {
		return nil, err
	}
	if inbound.Type != InboundTypeHello {
		return nil, errors.New("first frame must be hello")
	}

	var hello HelloData
	if err := decode(inbound.Data, &hello); err != nil {
		return nil, err
	}

	return c.verifier.Verify(ctx, hello.Token)
}

func (c *Coordinator) readLoop(ctx context.Context, conn *websocket.Conn, session *Session, user *store.User) error {
	for {
		var inbound Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}
		c.handleInbound(ctx, session, user, inbound)
	}
}

func (c *Coordinator) writeLoop(ctx context.Context, conn *websocket.Conn, session *Session) error {
	for {
		select {
		case ev := <-session.Events():
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				c.log.Error().Err(err).Str("user_id", session.UserID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handleInbound dispatches one event. Failures stay local to the event:
// they surface as an error frame to this session only and never tear
// the connection down.
func (c *Coordinator) handleInbound(ctx context.Context, session *Session, user *store.User, inbound Inbound) {
	switch inbound.Type {
	case InboundTypeSendMessage:
		var data SendMessageData
		if err := decode(inbound.Data, &data); err != nil {
			session.Deliver(errorEvent("invalid sendMessage payload"))
			return
		}
		c.handleSend(ctx, session, user, data)

	case InboundTypeTyping:
		c.forwardTyping(session, user, inbound.Data, OutboundTypeTyping)

	case InboundTypeStopTyping:
		c.forwardTyping(session, user, inbound.Data, OutboundTypeStopTyping)

	case InboundTypeMarkAsRead:
		var data MarkAsReadData
		if err := decode(inbound.Data, &data); err != nil {
			session.Deliver(errorEvent("invalid markAsRead payload"))
			return
		}
		c.handleMarkRead(ctx, session, user, data.ConversationID)

	default:
		session.Deliver(errorEvent("unknown event type"))
	}
}

func (c *Coordinator) handleSend(ctx context.Context, session *Session, user *store.User, data SendMessageData) {
	msg, err := c.chats.Send(ctx, user.ID, data.RecipientID, data.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrRecipientNotFound):
			session.Deliver(errorEvent("recipient not found"))
		case errors.Is(err, chat.ErrSelfMessage), errors.Is(err, chat.ErrEmptyBody):
			session.Deliver(errorEvent(err.Error()))
		default:
			c.log.Error().Err(err).Str("user_id", user.ID).Msg("live send failed")
			session.Deliver(errorEvent("message could not be sent"))
		}
		return
	}

	payload := MessageDataOf(msg, user)

	// Confirmation to the sender, then best-effort hand-off to the
	// recipient. The message is durable either way; a missed live emit
	// is recovered by a history fetch.
	session.Deliver(Outbound{Type: OutboundTypeMessageSent, Data: payload})
	if peer, ok := c.registry.Lookup(msg.RecipientID); ok {
		peer.Deliver(Outbound{Type: OutboundTypeNewMessage, Data: payload})
	}
}

func (c *Coordinator) forwardTyping(session *Session, user *store.User, raw []byte, outType string) {
	var data TypingData
	if err := decode(raw, &data); err != nil {
		session.Deliver(errorEvent("invalid typing payload"))
		return
	}
	// Pure signaling: not persisted, silently dropped when the
	// recipient is offline.
	if peer, ok := c.registry.Lookup(data.RecipientID); ok {
		peer.Deliver(Outbound{Type: outType, Data: TypingEvent{UserID: user.ID}})
	}
}

func (c *Coordinator) handleMarkRead(ctx context.Context, session *Session, user *store.User, conversationID string) {
	otherID, err := c.chats.MarkRead(ctx, user.ID, conversationID)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			// Non-fatal inconsistency, not a user-facing error.
			c.log.Debug().Str("user_id", user.ID).Str("conversation_id", conversationID).Msg("markAsRead for unknown conversation")
			return
		}
		c.log.Error().Err(err).Str("user_id", user.ID).Msg("live markAsRead failed")
		session.Deliver(errorEvent("could not mark conversation as read"))
		return
	}

	if peer, ok := c.registry.Lookup(otherID); ok {
		peer.Deliver(Outbound{
			Type: OutboundTypeMessagesRead,
			Data: MessagesReadData{UserID: user.ID, ConversationID: conversationID},
		})
	}
}

// broadcastOnlineUsers pushes the full active-ID list to every active
// session. Full-state snapshots, not deltas, so late joiners and
// existing members converge on the same truth.
func (c *Coordinator) broadcastOnlineUsers() {
	ids := c.registry.ActiveIDs()
	for _, session := range c.registry.Snapshot() {
		session.Deliver(Outbound{Type: OutboundTypeOnlineUsers, Data: ids})
	}
}

func errorEvent(msg string) Outbound {
	return Outbound{Type: OutboundTypeError, Data: ErrorData{Message: msg}}
}

func decode(raw []byte, v any) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	return json.Unmarshal(raw, v)
}
