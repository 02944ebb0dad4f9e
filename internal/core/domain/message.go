package domain

import "time"

// ChatMessage is one relayed chat event. The timestamp is stamped by the
// broadcaster when the send event is received, before persistence and fan-out;
// the message is immutable from that point on.
type ChatMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
