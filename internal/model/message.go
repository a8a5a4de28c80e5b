package model

import "time"

// TimestampLayout renders as MM/DD/YYYY HH:MM:SS.
const TimestampLayout = "01/02/2006 15:04:05"

type Message struct {
	Timestamp  string
	SenderID   string
	ReceiverID string
	Content    string
}

func NewMessage(sender, receiver, content string, at time.Time) Message {
	return Message{
		Timestamp:  at.Format(TimestampLayout),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
	}
}

// Display formats the message as "sender: content (timestamp)".
func (m Message) Display() string {
	return m.SenderID + ": " + m.Content + " (" + m.Timestamp + ")"
}
