package live

// sessionBuffer bounds how many undelivered events a connection may
// queue before further ones are dropped.
const sessionBuffer = 16

// Session is one authenticated live connection's core-facing half:
// an identity plus a buffered event queue drained by the connection's
// write loop. Delivery is best effort; a full queue drops the event,
// the durable record is already stored.
type Session struct {
	UserID string
	events chan Outbound
}

// NewSession constructs a session for the given user.
func NewSession(userID string) *Session {
	return &Session{
		UserID: userID,
		events: make(chan Outbound, sessionBuffer),
	}
}

// Deliver queues an event for the connection's write loop. Returns
// false if the queue is full and the event was dropped.
func (s *Session) Deliver(ev Outbound) bool {
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

// Events exposes the queue to the write loop.
func (s *Session) Events() <-chan Outbound {
	return s.events
}
