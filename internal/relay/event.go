package relay

// EventKind discriminates the events a connection loop can emit.
type EventKind int

const (
	EventConnect EventKind = iota
	EventChatSend
	EventDisconnect
)

// Event is one occurrence on a live connection, forwarded to the broadcaster
// over its queue. ChatSend carries the claimed sender and the content; the
// other kinds only identify the session.
type Event struct {
	Kind    EventKind
	Session *Session
	Sender  string
	Content string
}
